// Viewer renders the current room log as a terminal table. It opens the
// database read-only, so it can run next to the live server.
package main

import (
	"log"
	"os"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"batepapo/domain"
	"batepapo/repositories"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	messages, err := repositories.NewMessageRepository(db).ListAll()
	if err != nil {
		log.Fatalf("Failed to read messages: %v", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Kind", "From", "To", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, m := range messages {
		table.Append([]string{m.Time, renderKind(m.Kind), m.From, m.To, m.Text})
	}
	table.Render()
}

func renderKind(kind domain.Kind) string {
	switch kind {
	case domain.KindStatus:
		return color.Yellow.Render(string(kind))
	case domain.KindDirect:
		return color.Magenta.Render(string(kind))
	default:
		return color.Green.Render(string(kind))
	}
}
