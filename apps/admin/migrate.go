package main

import (
	"github.com/mkundi/kampasi/storage/database"
)

var migrateRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	if len(args) < 1 {
		cli.printUsage()
		return errHelp
	}
	return migrateRunFunc(args[0], cli.db, args[1:]...)
}
