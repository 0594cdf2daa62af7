//go:build ignore

package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"codeberg.org/tutoria/server/internal/auth"
	"codeberg.org/tutoria/server/internal/pagecontext"
)

func main() {
	// load environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	userID := flag.String("user", "", "user id, random when empty")
	email := flag.String("email", "student@tutoria.test", "user email")
	role := flag.String("role", "student", "student or teacher")
	admin := flag.Bool("admin", false, "mark the user as site administrator")
	flag.Parse()

	if *userID == "" {
		*userID = uuid.NewString()
	}

	token, err := auth.GenerateJWT(*userID, *email, *admin, pagecontext.ParseRole(*role))
	if err != nil {
		log.Fatalf("Failed to generate JWT: %v", err)
	}

	fmt.Printf("Test JWT for %s (%s, role %s):\n%s\n\n", *email, *userID, *role, token)
	fmt.Printf("Export this token for the terminal client:\nexport TUTORIA_TOKEN=\"%s\"\n", token)
}
