// Package config loads typed configuration structs from the environment.
//
// Every package that needs settings declares its own Config struct with
// caarlos0/env tags; the binary loads each of them with Load or MustLoad.
// A .env file in the working directory is read once, before the first
// struct is parsed. Variables already present in the environment win.
package config
