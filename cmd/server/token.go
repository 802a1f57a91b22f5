package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	idmemory "contractpay/internal/identity/store/memory"
	jwttoken "contractpay/internal/jwt_token"
	id "contractpay/pkg/domain"
)

var (
	tokenUser string
	tokenAs   string
	tokenTTL  time.Duration
)

var demoUsers = map[string]id.UserID{
	"admin":  idmemory.DemoAdminUserID,
	"client": idmemory.DemoClientUserID,
	"talent": idmemory.DemoTalentUserID,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := tokenSubject()
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
		token, err := svc.GenerateAccessToken(userID, ttl)
		if err != nil {
			return eris.Wrap(err, "sign token")
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to put in the token")
	tokenCmd.Flags().StringVar(&tokenAs, "as", "admin", "demo user to impersonate: admin, client or talent")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
}

func tokenSubject() (id.UserID, error) {
	if tokenUser != "" {
		return id.ParseUserID(tokenUser)
	}
	userID, ok := demoUsers[tokenAs]
	if !ok {
		return id.UserID{}, eris.Errorf("unknown demo user %q", tokenAs)
	}
	return userID, nil
}
