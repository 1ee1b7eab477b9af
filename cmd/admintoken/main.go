// Command admintoken signs an operator JWT for the admin trigger endpoints.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-form-dispatch/internal/config"
	"github.com/go-form-dispatch/internal/domain"
	jwtinfra "github.com/go-form-dispatch/internal/infrastructure/jwt"
	"github.com/joho/godotenv"
)

func main() {
	subject := flag.String("sub", "operator", "token subject")
	role := flag.String("role", domain.RoleAdmin, "token role")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	p, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("load keys", "err", err)
		os.Exit(1)
	}
	token, err := p.Sign(*subject, *role)
	if err != nil {
		slog.Error("sign token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
