package main

import (
	"fmt"

	"foodscan/config"
	"foodscan/db"
	"foodscan/localstore"
	"foodscan/services"

	"github.com/spf13/cobra"
)

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Manage restaurant owner accounts",
}

var (
	ownerName       string
	ownerRestaurant string
	ownerNoPassword bool
)

// ownerAddCmd registers an owner. Unless --no-password is given a random password is generated
// and printed once; with --no-password the owner sets one on first login.
var ownerAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Grant an email access to a restaurant's dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ownerRestaurant == "" {
			return fmt.Errorf("--restaurant is required")
		}
		if err := db.Init(cmd.Context(), cfg.DB); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer db.Close()

		var password string
		if !ownerNoPassword {
			p, err := services.GeneratePassword(services.OwnerPasswordLen)
			if err != nil {
				return err
			}
			password = p
		}
		u, err := services.AddOwner(cmd.Context(), args[0], ownerName, ownerRestaurant, password)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "owner %s added to %s (%s)\n", u.Email, u.RestaurantName, u.RestaurantID)
		if password != "" {
			fmt.Fprintf(out, "password: %s\n", password)
		}
		return nil
	},
}

var cartsCmd = &cobra.Command{
	Use:   "carts",
	Short: "Inspect and prune persisted carts",
}

var staleHours int

var cartsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete carts untouched for --hours (postgres cart store)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cart.Store != config.CartStorePostgres {
			return fmt.Errorf("prune works on the postgres cart store, CART_STORE is %q", cfg.Cart.Store)
		}
		if err := db.Init(cmd.Context(), cfg.DB); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer db.Close()
		n, err := services.DeleteStaleCarts(cmd.Context(), staleHours)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d carts deleted\n", n)
		return nil
	},
}

var cartsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cart keys held in the local SQLite store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := localstore.Open(cfg.Cart.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		keys, err := store.Keys(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		fmt.Fprintf(out, "%d carts in %s\n", len(keys), store.Path())
		return nil
	},
}

func init() {
	ownerAddCmd.Flags().StringVar(&ownerName, "name", "", "owner display name")
	ownerAddCmd.Flags().StringVar(&ownerRestaurant, "restaurant", "", "restaurant id the owner manages")
	ownerAddCmd.Flags().BoolVar(&ownerNoPassword, "no-password", false, "let the owner choose a password on first login")
	ownerCmd.AddCommand(ownerAddCmd)

	cartsPruneCmd.Flags().IntVar(&staleHours, "hours", staleCartHours, "age in hours after which a cart is deleted")
	cartsCmd.AddCommand(cartsPruneCmd, cartsListCmd)
}
