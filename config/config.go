/*
 * Copyright 2019 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the cube server configuration.
package config

import (
	"crypto/tls"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	validator "gopkg.in/go-playground/validator.v9"
	yaml "gopkg.in/yaml.v2"

	"github.com/CovenantSQL/cubesum/service"
	"github.com/CovenantSQL/cubesum/storage"
	"github.com/CovenantSQL/cubesum/utils"
	"github.com/CovenantSQL/cubesum/utils/log"
)

// storage drivers
const (
	DriverMemory  = "memory"
	DriverLevelDB = "leveldb"
	DriverSQLite3 = "sqlite3"
	DriverMongoDB = "mongodb"
)

const (
	defaultListenAddr      = "127.0.0.1:5000"
	defaultMetricsInterval = time.Minute
	defaultMongoTimeout    = 10 * time.Second
	defaultMongoDatabase   = "cubesum"
	defaultMongoCollection = "cubes"
)

var defaultRoots = map[string]string{
	DriverLevelDB: "cubes.ldb",
	DriverSQLite3: "cubes.db",
}

// StorageConfig defines the cube store.
type StorageConfig struct {
	Driver string `yaml:"Driver" validate:"oneof=memory leveldb sqlite3 mongodb"`
	// Root is the database path of leveldb and sqlite3, relative to the config file.
	Root string `yaml:"Root"`
	// mongodb only
	URL        string        `yaml:"URL"`
	Database   string        `yaml:"Database"`
	Collection string        `yaml:"Collection"`
	Timeout    time.Duration `yaml:"Timeout" validate:"min=0"`
}

// Config defines cube server configuration.
type Config struct {
	// server related
	ListenAddr      string      `yaml:"ListenAddr" validate:"required"`
	CertificatePath string      `yaml:"CertificatePath"`
	PrivateKeyPath  string      `yaml:"PrivateKeyPath"`
	TLSConfig       *tls.Config `yaml:"-" validate:"-"`

	LogLevel string `yaml:"LogLevel"`
	// MaxUpdateRetries of 0 takes the service default.
	MaxUpdateRetries int           `yaml:"MaxUpdateRetries" validate:"min=0"`
	MetricsInterval  time.Duration `yaml:"MetricsInterval" validate:"min=0"`

	Storage StorageConfig `yaml:"Storage"`
}

type confWrapper struct {
	CubeServer *Config `yaml:"CubeServer"`
}

// LoadConfig loads and verifies the config file, relative paths are resolved against its directory.
func LoadConfig(configPath string) (config *Config, err error) {
	var configBytes []byte
	if configBytes, err = ioutil.ReadFile(configPath); err != nil {
		log.WithError(err).Error("read config file failed")
		return
	}

	var base string
	if base, err = filepath.Abs(filepath.Dir(configPath)); err != nil {
		return
	}

	return Parse(configBytes, base)
}

// Parse decodes and verifies config data, base is the directory relative paths are resolved against.
func Parse(data []byte, base string) (config *Config, err error) {
	configWrapper := &confWrapper{}
	if err = yaml.Unmarshal(data, configWrapper); err != nil {
		log.WithError(err).Error("unmarshal config file failed")
		err = errors.Wrapf(ErrInvalidConfig, "%v", err)
		return
	}
	if configWrapper.CubeServer == nil {
		err = errors.Wrap(ErrInvalidConfig, "missing CubeServer section")
		return
	}

	config = configWrapper.CubeServer
	config.setDefaults()

	if err = validator.New().Struct(*config); err != nil {
		log.WithError(err).Error("validate config failed")
		return nil, errors.Wrapf(ErrInvalidConfig, "%v", err)
	}

	if err = config.Storage.resolve(base); err != nil {
		return nil, err
	}

	if config.CertificatePath == "" || config.PrivateKeyPath == "" {
		log.Info("running in http mode")
	} else {
		certPath := utils.ResolvePath(base, config.CertificatePath)
		privateKeyPath := utils.ResolvePath(base, config.PrivateKeyPath)

		var cert tls.Certificate
		if cert, err = tls.LoadX509KeyPair(certPath, privateKeyPath); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "load certificate: %v", err)
		}
		config.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
	}

	return
}

func (c *Config) setDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.MaxUpdateRetries == 0 {
		c.MaxUpdateRetries = service.DefaultMaxRetries
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = defaultMetricsInterval
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverLevelDB
	}
	if c.Storage.Root == "" {
		c.Storage.Root = defaultRoots[c.Storage.Driver]
	}
	if c.Storage.Timeout == 0 {
		c.Storage.Timeout = defaultMongoTimeout
	}
	if c.Storage.Database == "" {
		c.Storage.Database = defaultMongoDatabase
	}
	if c.Storage.Collection == "" {
		c.Storage.Collection = defaultMongoCollection
	}
}

func (sc *StorageConfig) resolve(base string) (err error) {
	switch sc.Driver {
	case DriverLevelDB, DriverSQLite3:
		sc.Root = utils.ResolvePath(base, sc.Root)
	case DriverMongoDB:
		if sc.URL == "" {
			err = errors.Wrap(ErrInvalidStorageConfig, "mongodb requires URL")
		}
	}
	return
}

// NewStorage opens the cube store described by sc, the caller closes it.
func NewStorage(sc *StorageConfig) (st storage.Storage, err error) {
	log.WithFields(log.Fields{
		"driver": sc.Driver,
		"root":   sc.Root,
	}).Info("open cube storage")

	switch sc.Driver {
	case DriverMemory:
		st = storage.NewMemoryStorage()
	case DriverLevelDB:
		var s *storage.LevelDBStorage
		if s, err = storage.NewLevelDBStorage(sc.Root); err == nil {
			st = s
		}
	case DriverSQLite3:
		if err = os.MkdirAll(filepath.Dir(sc.Root), 0755); err != nil {
			return
		}
		var s *storage.SQLiteStorage
		if s, err = storage.NewSQLiteStorage(sc.Root); err == nil {
			st = s
		}
	case DriverMongoDB:
		var s *storage.MongoStorage
		if s, err = storage.NewMongoStorage(sc.URL, sc.Database, sc.Collection, sc.Timeout); err == nil {
			st = s
		}
	default:
		err = errors.Wrapf(ErrInvalidStorageConfig, "unknown driver %q", sc.Driver)
	}
	return
}
