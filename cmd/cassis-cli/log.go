package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	registry "github.com/cassiscash/registry"
)

func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "print operations from the registry log",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			since, _ := cmd.Flags().GetInt64("since")
			live, _ := cmd.Flags().GetBool("live")

			q := url.Values{}
			if since >= 0 {
				q.Set("from", fmt.Sprintf("%d", since))
			}
			if live {
				q.Set("live", "true")
			}

			resp, err := http.Get(host + "/log?" + q.Encode())
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s", resp.Status)
			}

			dec := json.NewDecoder(bufio.NewReader(resp.Body))
			for {
				var op registry.Operation
				if err := dec.Decode(&op); err != nil {
					return nil
				}
				out, err := json.Marshal(op)
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
		},
	}
	cmd.Flags().String("host", "http://localhost:8080", "registry daemon address")
	cmd.Flags().Int64("since", -1, "only print operations from this index onward")
	cmd.Flags().Bool("live", false, "keep streaming newly appended operations")
	return cmd
}
