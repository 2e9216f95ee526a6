// Command devtoken mints a bearer token signed with JWT_SECRET for local
// development. Production tokens come from the identity provider.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/platform/config"
)

func main() {
	var claims auth.Claims
	flag.StringVar(&claims.UserID, "uid", "dev-admin", "user id")
	flag.StringVar(&claims.Name, "name", "Dev Admin", "display name")
	flag.StringVar(&claims.Email, "email", "admin@fitbusiness.local", "email")
	flag.StringVar(&claims.Role, "role", string(auth.RoleAdmin), "admin, hr_manager or employee")
	flag.StringVar(&claims.CompanyID, "company", "", "company id, required for non-admin roles")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	if _, err := claims.User(); err != nil {
		slog.Error("claims rejected", "role", claims.Role, "company", claims.CompanyID, "err", err)
		os.Exit(1)
	}
	token, err := auth.GenerateToken(cfg.JWTSecret, cfg.JWTIssuer, claims, *ttl)
	if err != nil {
		slog.Error("sign token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
