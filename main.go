// @title Planning Poker API
// @version 1.0
// @description Backend API for real-time planning poker sessions
package main

import (
	_ "github.com/pankaj9057/planning-poker/docs"

	"github.com/pankaj9057/planning-poker/api"
	"github.com/pankaj9057/planning-poker/logging"
	"github.com/spf13/viper"
)

func main() {
	logging.BoostrapLogger()

	// Load env
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Log.Errorf("Failed to read config file: %v", err)
		panic("Failed to read config file: " + err.Error())
	}

	// Read config
	config := api.ReadConfig()

	// Start the service (inside the lambda)
	service := api.NewServer(config)
	service.Start()
}
