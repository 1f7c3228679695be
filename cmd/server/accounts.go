package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.pilab.hu/shadow-auth/domain"
	"go.pilab.hu/shadow-auth/internal/audit"
	"gopkg.in/yaml.v3"
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Short:   "Inspect and remove accounts",
	Aliases: []string{"account"},
}

var accountsShowCmd = &cobra.Command{
	Use:   "show <email>",
	Short: "Print an account and its linked providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openAccountStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer store.close(ctx)

		account, err := store.repo.FindByEmail(ctx, normalizeEmail(args[0]))
		if err != nil {
			return lookupError(args[0], err)
		}
		links, err := store.repo.ListLinks(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("list links: %w", err)
		}

		out := yaml.NewEncoder(os.Stdout)
		out.SetIndent(2)
		defer out.Close()
		return out.Encode(newAccountView(account, links))
	},
}

var accountsDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete an account with its provider links and refresh token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openAccountStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer store.close(ctx)

		account, err := store.repo.FindByEmail(ctx, normalizeEmail(args[0]))
		if err != nil {
			return lookupError(args[0], err)
		}

		refresh, err := openRefreshStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer refresh.close()

		if err := refresh.store.Delete(ctx, account.Email); err != nil {
			return fmt.Errorf("drop refresh token: %w", err)
		}
		if err := store.repo.DeleteAccount(ctx, account.ID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		audit.Log(audit.Event{
			Action:    audit.ActionAccountDeleted,
			Subject:   account.Email,
			AccountID: account.ID,
			Success:   true,
		})
		appLogger.Info(ctx, "Account deleted", map[string]interface{}{
			"account_id": account.ID,
			"email":      account.Email,
		})
		fmt.Printf("Account %s deleted.\n", account.Email)
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsShowCmd)
	accountsCmd.AddCommand(accountsDeleteCmd)
}

type linkView struct {
	Provider   string    `yaml:"provider"`
	ExternalID string    `yaml:"external_id"`
	LinkedAt   time.Time `yaml:"linked_at"`
}

type accountView struct {
	ID          string     `yaml:"id"`
	Email       string     `yaml:"email"`
	DisplayName string     `yaml:"display_name"`
	Role        string     `yaml:"role"`
	CreatedAt   time.Time  `yaml:"created_at"`
	Links       []linkView `yaml:"links"`
}

func newAccountView(account *domain.Account, links []domain.IdentityLink) accountView {
	view := accountView{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        account.Role.String(),
		CreatedAt:   account.CreatedAt,
		Links:       make([]linkView, 0, len(links)),
	}
	for _, l := range links {
		view.Links = append(view.Links, linkView{
			Provider:   l.Provider.String(),
			ExternalID: l.ExternalID,
			LinkedAt:   l.CreatedAt,
		})
	}
	return view
}

func lookupError(email string, err error) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("no account with email %s", email)
	}
	return fmt.Errorf("find account: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
