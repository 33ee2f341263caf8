package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"cardroom-server/pkg/table"
)

var command = flag.String("c", "room", "specifies the command (room)")

func main() {
	flag.Parse()

	switch *command {
	case "room":
		name, err := getInput("Room name")
		if err != nil {
			logrus.WithError(err).Fatal("could not get answer")
		}

		if name == "" {
			os.Exit(1)
		}

		email := getEmail()
		if email == "" {
			os.Exit(1)
		}

		passcode := getPasscode()

		room, err := table.CreateRoom(context.Background(), name, email, passcode, "127.0.0.1")
		if err != nil {
			logrus.WithError(err).Fatal("could not create room")
		}

		fmt.Printf("Created room %s\n", room.UUID)
		fmt.Printf("Join code: %s\n", room.Code)

	default:
		logrus.Fatalf("unknown command: %s", *command)
	}
}

// an empty passcode leaves the room open
func getPasscode() string {
	for {
		fmt.Print("Passcode (blank for an open room): ")
		pwBytes, err := term.ReadPassword(0)
		if err != nil {
			continue
		}
		fmt.Println("")

		passcode := strings.TrimRight(string(pwBytes), "\r\n")

		if passcode == "" {
			return ""
		}

		if len(passcode) < 4 {
			_, _ = fmt.Fprintf(os.Stderr, "passcode must be 4 or more characters\n")
			continue
		}

		return passcode
	}
}

func getEmail() string {
	for {
		fmt.Print("Contact email: ")
		reader := bufio.NewReader(os.Stdin)
		str, err := reader.ReadString('\n')
		if err != nil {
			logrus.WithError(err).Warn("could not read email")
		}

		str = strings.TrimRight(str, "\r\n")

		if str == "" {
			return ""
		}

		if err := checkmail.ValidateFormat(str); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			continue
		}

		return str
	}
}

func getInput(question string) (string, error) {
	fmt.Printf("%s: ", question)
	reader := bufio.NewReader(os.Stdin)
	str, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	str = strings.TrimRight(str, "\r\n")

	return str, nil
}
