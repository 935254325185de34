package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mcdev12/jokenpo/go/internal/gateway"
)

// devtoken mints an HS256 token the gateway accepts, for local testing:
//
//	JWT_SECRET=dev go run ./go/internal/tools/devtoken -user 42 -name alice
func main() {
	userID := flag.Int64("user", 1, "user id")
	username := flag.String("name", "", "username")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}
	if *username == "" {
		*username = "player" + strconv.FormatInt(*userID, 10)
	}

	now := time.Now()
	claims := gateway.Claims{
		UserID:   *userID,
		Username: *username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
