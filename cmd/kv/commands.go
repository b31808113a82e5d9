package kv

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping [message]",
		Short: "Checks that the server is alive, optionally echoing a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				msg, err := kvClient.Echo(args[0])
				if err != nil {
					return err
				}
				fmt.Println(msg)
				return nil
			}
			if err := kvClient.Ping(); err != nil {
				return err
			}
			fmt.Println("PONG")
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvClient.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, ok, err := kvClient.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, value=%s\n", key, ok, value)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			existed, err := kvClient.Delete(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, deleted=%t\n", key, existed)
			return nil
		},
	}
	getAllCmd = &cobra.Command{
		Use:   "getall",
		Short: "Lists all key value pairs, sorted by key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := kvClient.GetAll()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("(empty)")
				return nil
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
			for _, e := range entries {
				fmt.Printf("%s : %s\n", e.Key, e.Value)
			}
			return nil
		},
	}
	saveCmd = &cobra.Command{
		Use:   "save",
		Short: "Makes the server write its snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvClient.Save(); err != nil {
				return err
			}
			fmt.Println("saved successfully")
			return nil
		},
	}
	dbSizeCmd = &cobra.Command{
		Use:   "dbsize",
		Short: "Prints the number of keys on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := kvClient.DBSize()
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
)
