// Command create-admin adds a user who can sign in with the password provider.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/auth"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/db"
	"github.com/amercogo/MojKutakAdmin/internal/logger"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
)

const minPasswordLength = 8

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	email := flag.String("email", "", "Email address of the new user")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fail(err)
	}
	db.SetLogger(logger.New("error", cfg.Logging.Format))

	scanner := bufio.NewScanner(os.Stdin)
	if *email == "" {
		*email = prompt(scanner, "Email: ")
	}
	// Input is echoed; pipe the password in when that matters.
	password := prompt(scanner, "Password: ")

	if !strings.Contains(*email, "@") {
		fail(errors.New("invalid email address"))
	}
	if len(password) < minPasswordLength {
		fail(fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}

	database, err := db.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		fail(err)
	}
	if err := database.InitDB(); err != nil {
		fail(fmt.Errorf(config.ErrInitializeDatabaseFmt, err))
	}
	defer database.Close()

	users := repository.NewDBUserRepository(database)
	ctx := context.Background()

	if _, err := users.GetUserByEmail(ctx, *email); err == nil {
		fail(fmt.Errorf("user %s already exists", *email))
	} else if !errors.Is(err, apperror.ErrNotFound) {
		fail(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fail(err)
	}

	user, err := users.CreateUser(ctx, *email, hash)
	if err != nil {
		fail(err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Created user %s (%s)", user.Email, user.ID)))
}

func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Print(promptStyle.Render(label))
	if !scanner.Scan() {
		fail(errors.New("no input"))
	}
	return strings.TrimSpace(scanner.Text())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
	os.Exit(1)
}
