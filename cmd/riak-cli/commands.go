package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pior/riak"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [bucket] [key]",
		Short: "Fetches the value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			op := riak.Get[[]byte](client, args[0], args[1]).Resolver(firstSibling)
			if head, _ := cmd.Flags().GetBool("head"); head {
				op = op.Head()
			}

			entry, err := op.Commit().Wait(ctx)
			if err != nil {
				return err
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				printHeaders(entry.Headers)
			}
			if !entry.Found {
				if entry.Headers.ContentType == "" {
					return fmt.Errorf("%s/%s: not found", args[0], args[1])
				}
				return nil
			}
			fmt.Println(string(entry.Data))
			return nil
		},
	}

	putCmd = &cobra.Command{
		Use:   "put [bucket] [key] [value]",
		Short: "Stores a value; an empty key lets the node generate one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			op := riak.Put(client, args[0], args[1], []byte(args[2])).ReturnBody(false)
			if vclock, _ := cmd.Flags().GetString("vclock"); vclock != "" {
				decoded, err := base64.StdEncoding.DecodeString(vclock)
				if err != nil {
					return fmt.Errorf("vclock must be base64: %w", err)
				}
				op = op.VClock(decoded)
			}
			if ifNoneMatch, _ := cmd.Flags().GetBool("if-none-match"); ifNoneMatch {
				op = op.IfNoneMatch()
			}
			meta, _ := cmd.Flags().GetStringToString("meta")
			for k, v := range meta {
				op = op.Metadata(k, v)
			}

			entry, err := op.Commit().Wait(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("stored %s/%s vclock=%s\n", entry.Bucket, entry.Key, base64.StdEncoding.EncodeToString(entry.Headers.VClock))
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [bucket] [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if _, err := riak.Delete(client, args[0], args[1]).Commit().Wait(ctx); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}

	listKeysCmd = &cobra.Command{
		Use:   "list-keys [bucket]",
		Short: "Lists the keys of a bucket (expensive, walks the whole cluster)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			keys, err := riak.ListKeys(client, args[0]).Commit().Wait(ctx)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that the node answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := client.Ping(ctx); err != nil {
				return err
			}
			fmt.Println("pong")
			return nil
		},
	}

	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints the node name and server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			info, err := client.ServerInfo(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("node: %s\nversion: %s\n", info.Node, info.Version)
			return nil
		},
	}
)

func init() {
	getCmd.Flags().Bool("head", false, "Only fetch metadata")
	getCmd.Flags().BoolP("verbose", "v", false, "Print metadata before the value")

	putCmd.Flags().String("vclock", "", "Vector clock of the version being replaced, base64")
	putCmd.Flags().Bool("if-none-match", false, "Fail if the key already exists")
	putCmd.Flags().StringToString("meta", nil, "User metadata as key=value pairs")
}

// firstSibling keeps the first value when the node returns siblings.
func firstSibling(siblings [][]byte) ([]byte, error) {
	fmt.Fprintf(os.Stderr, "warning: %d siblings, showing the first\n", len(siblings))
	return siblings[0], nil
}

func printHeaders(h riak.Headers) {
	fmt.Printf("vclock: %s\n", base64.StdEncoding.EncodeToString(h.VClock))
	if h.ContentType != "" {
		fmt.Printf("content-type: %s\n", h.ContentType)
	}
	if h.VTag != "" {
		fmt.Printf("vtag: %s\n", h.VTag)
	}
	if !h.LastModified.IsZero() {
		fmt.Printf("last-modified: %s\n", h.LastModified)
	}
	for k, v := range h.Metadata {
		fmt.Printf("meta: %s=%s\n", k, v)
	}
	for _, l := range h.Links {
		fmt.Printf("link: %s\n", strings.Join([]string{l.Bucket, l.Key, l.Tag}, "/"))
	}
}
