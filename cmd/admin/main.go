// Command admin manages user accounts.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/encukou/prekapavac/internal/config"
	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"
	"github.com/encukou/prekapavac/internal/repository"
	"github.com/encukou/prekapavac/internal/service"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  admin create <username> [email] [--admin]  - Create a user (password read from stdin)")
	fmt.Println("  admin set-password <username>              - Set a password (read from stdin)")
	fmt.Println("  admin promote <username>                   - Grant administrator rights")
	fmt.Println("  admin demote <username>                    - Revoke administrator rights")
	fmt.Println("  admin deactivate <username>                - Block a user from logging in")
	fmt.Println("  admin activate <username>                  - Allow a user to log in again")
	fmt.Println("  admin list                                 - List all users")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	observability.InitLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	users := service.NewUserService(repository.NewUserRepository(db))
	if err := run(context.Background(), users, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, users *service.UserService, args []string) error {
	command := args[0]
	if command == "list" {
		return listUsers(ctx, users)
	}
	if len(args) < 2 {
		printUsage()
		return fmt.Errorf("%s needs a username", command)
	}
	username := args[1]

	switch command {
	case "create":
		admin := false
		email := ""
		for _, a := range args[2:] {
			if a == "--admin" {
				admin = true
			} else {
				email = a
			}
		}
		password, err := readPassword()
		if err != nil {
			return err
		}
		user, err := users.CreateUser(ctx, service.CreateUserInput{Username: username, Password: password, Email: email, Admin: admin})
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (ID: %d, admin: %t)\n", user.Username, user.ID, user.Admin)
	case "set-password":
		password, err := readPassword()
		if err != nil {
			return err
		}
		if err := users.SetPassword(ctx, username, password); err != nil {
			return err
		}
		fmt.Printf("Password updated for %s\n", username)
	case "promote", "demote":
		user, err := users.SetAdmin(ctx, username, command == "promote")
		if err != nil {
			return err
		}
		fmt.Printf("%s (ID: %d) admin: %t\n", user.Username, user.ID, user.Admin)
	case "activate", "deactivate":
		user, err := users.SetActive(ctx, username, command == "activate")
		if err != nil {
			return err
		}
		fmt.Printf("%s (ID: %d) active: %t\n", user.Username, user.ID, user.Active)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}

// readPassword reads one line from stdin so passwords stay out of the shell history.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func listUsers(ctx context.Context, users *service.UserService) error {
	all, err := users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No users found")
		return nil
	}
	for _, u := range all {
		fmt.Printf("ID: %d | Username: %s | Admin: %t | Active: %t | Seen: %s\n",
			u.ID, u.Username, u.Admin, u.Active, seen(u))
	}
	return nil
}

func seen(u models.User) string {
	if u.SeenAt == nil {
		return "never"
	}
	return u.SeenAt.Format("2006-01-02 15:04")
}
