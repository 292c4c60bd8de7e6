// atlas 透過這個程式讀取 gorm 模型產生的 schema
//
//	atlas migrate diff --env gorm
package main

import (
	"fmt"
	"io"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"

	"auctionhub/models"
)

func errExit(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	stmts, err := gormschema.New("postgres").Load(
		&models.User{},
		&models.Auction{},
		&models.Bid{},
	)
	if err != nil {
		errExit("failed to load gorm schema: %v", err)
	}
	if _, err := io.WriteString(os.Stdout, stmts); err != nil {
		errExit("failed to write schema: %v", err)
	}
}
