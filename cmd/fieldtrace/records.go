package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fieldtrace/fieldtrace/internal/model"
	"github.com/fieldtrace/fieldtrace/internal/seed"
	"github.com/fieldtrace/fieldtrace/internal/store"
)

var fullName string

var dependentsCmd = &cobra.Command{
	Use:   "dependents <table> <id>",
	Short: "List the records that still reference a record",
	Args:  cobra.ExactArgs(2),
	RunE:  runDependents,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <table> <id>",
	Short: "Delete a record nothing references",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load users and records from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&fullName, "full-name", "", "Display name of the user")
	userCmd.AddCommand(userAddCmd)
}

func runDependents(cmd *cobra.Command, args []string) error {
	table, id, err := parseRecordArgs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	deps, err := s.Dependents(ctx, table, id)
	if err != nil {
		return err
	}

	if len(deps) == 0 {
		log.Printf("Nothing references %s %d", table, id)
		return nil
	}
	for _, d := range deps {
		fmt.Printf("%s.%s: %d\n", d.Table, d.Column, d.Count)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	table, id, err := parseRecordArgs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	if table == model.TableUsers {
		err = s.DeleteUser(ctx, id)
	} else {
		rec, ok := model.New(table)
		if !ok {
			return fmt.Errorf("unknown table %q", table)
		}
		keyed, ok := rec.(interface{ SetPrimaryKey(uint) })
		if !ok {
			return fmt.Errorf("cannot address %s by id", table)
		}
		keyed.SetPrimaryKey(id)
		err = s.Delete(ctx, rec)
	}

	var rie *store.ReferentialIntegrityError
	if errors.As(err, &rie) {
		for _, d := range rie.Dependents {
			fmt.Printf("%s.%s: %d\n", d.Table, d.Column, d.Count)
		}
	}
	if err != nil {
		return err
	}

	log.Printf("Deleted %s %d", table, id)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	fixture, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	res, err := seed.Apply(ctx, s, fixture)
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", args[0], err)
	}

	log.Printf("Registered %d user(s)", res.Users)
	for _, rec := range model.Registry() {
		if n := res.Counts[rec.TableName()]; n > 0 {
			log.Printf("Created %d %s", n, rec.TableName())
		}
	}
	return nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	u := &model.User{Username: args[0], FullName: fullName}
	if err := s.CreateUser(ctx, u); err != nil {
		return err
	}

	log.Printf("Created user %s with id %d", u.Username, u.ID)
	return nil
}

func parseRecordArgs(args []string) (string, uint, error) {
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil || id == 0 {
		return "", 0, fmt.Errorf("invalid id %q", args[1])
	}
	return args[0], uint(id), nil
}
