package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "media-relay",
		Short: "Media Relay CLI - Supervised media extraction with notification fan-out",
		Long:  `A command-line interface for fetching media through the media-relay server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Fetch media from a URL (blocks until the run finishes)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		audioOnly, _ := cmd.Flags().GetBool("audio")
		folder, _ := cmd.Flags().GetString("folder")
		cookiesFile, _ := cmd.Flags().GetString("cookies-file")
		chatHooks, _ := cmd.Flags().GetStringArray("chat")
		webhooks, _ := cmd.Flags().GetStringArray("webhook")
		publishToken, _ := cmd.Flags().GetString("publish-token")

		payload := map[string]interface{}{
			"url":        args[0],
			"audio_only": audioOnly,
		}
		if cmd.Flags().Changed("start") {
			start, _ := cmd.Flags().GetInt("start")
			payload["start_time"] = start
		}
		if cmd.Flags().Changed("end") {
			end, _ := cmd.Flags().GetInt("end")
			payload["end_time"] = end
		}
		if folder != "" {
			payload["folder"] = folder
		}
		if cookiesFile != "" {
			cookies, err := os.ReadFile(cookiesFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading cookies file: %v\n", err)
				os.Exit(1)
			}
			payload["cookies"] = string(cookies)
		}

		// Any hook flag replaces the server-side defaults for that hook
		hooks := map[string]interface{}{}
		if len(chatHooks) > 0 {
			hooks["chat_webhooks"] = chatHooks
		}
		if len(webhooks) > 0 {
			hooks["webhooks"] = webhooks
		}
		if publishToken != "" {
			hooks["publish"] = map[string]string{"access_token": publishToken}
		}
		if len(hooks) > 0 {
			payload["hooks"] = hooks
		}

		data, _ := json.Marshal(payload)
		fmt.Println("Fetching... (this blocks until the download finishes)")
		resp, err := http.Post(serverURL+"/api/v1/downloads", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result map[string]interface{}
		json.Unmarshal(body, &result)

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Fetch failed (%s):\n", resp.Status)
			if errInfo, ok := result["error"].(map[string]interface{}); ok {
				fmt.Fprintf(os.Stderr, "  Kind:    %v\n", errInfo["kind"])
				fmt.Fprintf(os.Stderr, "  Message: %v\n", errInfo["message"])
				if errInfo["details"] != nil {
					fmt.Fprintf(os.Stderr, "  Details:\n%v\n", errInfo["details"])
				}
			} else {
				fmt.Fprintf(os.Stderr, "  %s\n", string(body))
			}
			os.Exit(1)
		}

		fmt.Println("Fetch completed!")
		fmt.Printf("  Title: %s\n", result["title"])
		fmt.Printf("  File:  %s\n", result["file_path"])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		url := serverURL + "/api/v1/history"
		if status != "" {
			url += "?status=" + status
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result struct {
			Records []map[string]interface{} `json:"records"`
		}
		json.Unmarshal(body, &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tSTATUS\tTITLE\tCREATED")
		for _, r := range result.Records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(stringField(r, "id"), 8),
				truncate(stringField(r, "url"), 40),
				r["status"],
				truncate(stringField(r, "title"), 30),
				r["created_at"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/history/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:     %v\n", stats["total"])
		fmt.Printf("  Completed: %v\n", stats["completed"])
		fmt.Printf("  Failed:    %v\n", stats["failed"])
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get download record details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/history/" + args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var record map[string]interface{}
		json.Unmarshal(body, &record)

		fmt.Printf("Download Record:\n")
		fmt.Printf("  ID:      %s\n", record["id"])
		fmt.Printf("  URL:     %s\n", record["url"])
		fmt.Printf("  Status:  %s\n", record["status"])
		fmt.Printf("  Created: %s\n", record["created_at"])
		if record["file_path"] != nil {
			fmt.Printf("  File:    %s\n", record["file_path"])
		}
		if record["error_kind"] != nil {
			fmt.Printf("  Error:   [%s] %s\n", record["error_kind"], record["error_message"])
		}
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (app, notify, error)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		category := "app"
		if len(args) == 1 {
			category = args[0]
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")

		resp, err := http.Get(serverURL + "/api/v1/logs/" + category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Entries []map[string]interface{} `json:"entries"`
		}
		json.Unmarshal(body, &result)

		if jsonOutput {
			prettyJSON, _ := json.MarshalIndent(result.Entries, "", "  ")
			fmt.Println(string(prettyJSON))
			return
		}

		for _, entry := range result.Entries {
			fmt.Printf("%s [%s] %s\n", entry["timestamp"], entry["level"], entry["message"])
		}
	},
}

func init() {
	fetchCmd.Flags().BoolP("audio", "a", false, "Extract audio only")
	fetchCmd.Flags().Int("start", 0, "Clip start offset in seconds (requires --end)")
	fetchCmd.Flags().Int("end", 0, "Clip end offset in seconds (requires --start)")
	fetchCmd.Flags().StringP("folder", "f", "", "Destination sub-folder")
	fetchCmd.Flags().String("cookies-file", "", "Path to a Netscape cookies file")
	fetchCmd.Flags().StringArray("chat", nil, "Chat webhook URL (overrides server defaults, repeatable)")
	fetchCmd.Flags().StringArray("webhook", nil, "Generic webhook URL (overrides server defaults, repeatable)")
	fetchCmd.Flags().String("publish-token", "", "Access token for the social-publish hook")
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (completed, failed)")
	logsCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
