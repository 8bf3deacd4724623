// Package appdirs provides the local directories of the app.
package appdirs

import (
	"os"
	"path/filepath"

	xappdirs "github.com/chasinglogic/appdirs"
)

const (
	appName        = "srp"
	configFileName = "config.yaml"
	dbFileName     = "srp.sqlite"
	logFileName    = "srp.log"
	logFolderName  = "log"
)

// AppDirs represents the app's local directories for storing the database, logs etc.
type AppDirs struct {
	Config string
	Data   string
	Log    string
}

// New returns the default directories of the app and ensures they exist.
func New() (AppDirs, error) {
	ad := xappdirs.New(appName)
	return create(ad.UserConfig(), ad.UserData())
}

// NewWithBase returns the directories of the app below a base directory and ensures they exist.
func NewWithBase(base string) (AppDirs, error) {
	return create(base, base)
}

func create(config, data string) (AppDirs, error) {
	x := AppDirs{
		Config: config,
		Data:   data,
		Log:    filepath.Join(data, logFolderName),
	}
	for _, p := range x.Folders() {
		if err := os.MkdirAll(p, os.ModePerm); err != nil {
			return x, err
		}
	}
	return x, nil
}

func (ad AppDirs) Folders() []string {
	return []string{ad.Config, ad.Data, ad.Log}
}

// ConfigFile returns the path of the default config file.
func (ad AppDirs) ConfigFile() string {
	return filepath.Join(ad.Config, configFileName)
}

// DatabaseFile returns the path of the default database file.
func (ad AppDirs) DatabaseFile() string {
	return filepath.Join(ad.Data, dbFileName)
}

// LogFile returns the path of the default log file.
func (ad AppDirs) LogFile() string {
	return filepath.Join(ad.Log, logFileName)
}
