package actors

import (
	"os"

	"github.com/spf13/viper"
	"mintgate/engine/library"
)

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/mintgate/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("logLevel", 4)
	// the ledger is flushed to flatFileDir on shutdown and restored on start
	config.SetDefault("persistLedger", true)
	config.SetDefault("payerKeyFile", "payer.json")
	config.SetDefault("airdropLamports", uint64(2*library.LamportsPerSol))
	config.SetDefault("mintAmount", uint64(10_000_000))
	config.SetDefault("relays", []string{})
	library.SetLogLevel(config.GetInt("logLevel"))
	// Create our working directory and config file if not exist
	initRootDir(config)
	touch(config.GetString("rootDir") + "config.yaml")
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.MkdirAll(conf.GetString("rootDir"), 0755)
		if err != nil {
			library.LogCLI(err, 0)
		}
	}
}

func touch(name string) {
	f, err := os.OpenFile(name, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		library.LogCLI(err, 1)
		return
	}
	f.Close()
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	if conf == nil {
		conf = viper.New()
	}
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}
