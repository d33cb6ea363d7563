package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userEmail != "" {
		s = fmt.Sprintf("(%s)", a.userEmail)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to gatectl (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("gatectl %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		var err error

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: whoami, refresh, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, reset, confirm, exit")
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "refresh":
			err = a.Refresh(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "reset":
			err = a.RequestReset(ctx)
		case "confirm":
			err = a.ConfirmReset(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}

		if err != nil {
			log.Printf("Error: %s", err.Error())
		}
	}
}
