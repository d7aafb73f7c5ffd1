// Command token mints an access token for a (user, shop, role) triple.
// Credentials live outside this service; operators use it to hand out
// tokens and to script against the API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/config"
)

func main() {
	var (
		userID string
		shopID string
		role   string
		ttl    time.Duration
		asJSON bool
	)
	flag.StringVar(&userID, "user", "", "User ID (uuid); a random one when empty")
	flag.StringVar(&shopID, "shop", "", "Shop ID (uuid), required")
	flag.StringVar(&role, "role", string(auth.RoleOwner), "Role: owner, manager, cashier, auditor or admin")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime; defaults to jwt.access_token_expiration")
	flag.BoolVar(&asJSON, "json", false, "Print the full token response as JSON")
	flag.Parse()

	if err := run(userID, shopID, role, ttl, asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
}

func run(userID, shopID, role string, ttl time.Duration, asJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	input, err := parseInput(userID, shopID, role, ttl)
	if err != nil {
		return err
	}

	token, err := auth.NewJWTService(cfg.JWT).Generate(input)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(token)
	}
	fmt.Println(token.AccessToken)
	return nil
}

// parseInput validates the flags and fills in a random user id when none is given
func parseInput(userID, shopID, role string, ttl time.Duration) (auth.GenerateTokenInput, error) {
	var in auth.GenerateTokenInput

	if shopID == "" {
		return in, fmt.Errorf("-shop is required")
	}
	shop, err := uuid.Parse(shopID)
	if err != nil {
		return in, fmt.Errorf("invalid -shop: %w", err)
	}

	user := uuid.New()
	if userID != "" {
		if user, err = uuid.Parse(userID); err != nil {
			return in, fmt.Errorf("invalid -user: %w", err)
		}
	}

	r := auth.Role(role)
	if !r.IsValid() {
		return in, fmt.Errorf("invalid -role %q", role)
	}
	if ttl < 0 {
		return in, fmt.Errorf("-ttl cannot be negative")
	}

	in = auth.GenerateTokenInput{UserID: user, ShopID: shop, Role: r, TTL: ttl}
	return in, nil
}
