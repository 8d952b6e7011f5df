package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	registry "github.com/cassiscash/registry"
)

func trustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust <hex-pubkey> <satoshis>",
		Short: "extend a line of credit to another participant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyHex, _ := cmd.Flags().GetString("key")
			host, _ := cmd.Flags().GetString("host")

			sk, err := registry.ParseSecretKeyHex(keyHex)
			if err != nil {
				return fmt.Errorf("parse --key: %w", err)
			}
			to, err := registry.ParsePublicKeyHex(args[0])
			if err != nil {
				return fmt.Errorf("parse pubkey: %w", err)
			}
			amount, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("parse satoshis: %w", err)
			}

			fromIdx, err := fetchKeyIndex(host, sk.Public())
			if err != nil {
				return fmt.Errorf("look up own key index: %w", err)
			}

			t := registry.Trust{
				TS:     uint32(time.Now().Unix()),
				From:   fromIdx,
				To:     to,
				Amount: uint32(amount),
			}
			sig, err := sk.Sign(t.Sighash())
			if err != nil {
				return fmt.Errorf("sign trust: %w", err)
			}
			t.Sig = sig

			return postOperation(host, registry.TrustOp(t))
		},
	}
	cmd.Flags().String("key", "", "hex-encoded secret key")
	cmd.Flags().String("host", "http://localhost:8080", "registry daemon address")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func fetchKeyIndex(host string, pk registry.PublicKey) (uint32, error) {
	resp, err := http.Get(host + "/idx/" + pk.Hex())
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: %s", resp.Status, body)
	}
	idx, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse index %q: %w", body, err)
	}
	return uint32(idx), nil
}

func postOperation(host string, op registry.Operation) error {
	body, err := json.Marshal(op)
	if err != nil {
		return err
	}
	resp, err := http.Post(host+"/append", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, respBody)
	}
	fmt.Println("ok")
	return nil
}
