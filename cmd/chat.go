package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sporefield/mycelium/internal/engine"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation in the terminal",
	Long: `Starts a REPL. Each message is analyzed and five growth paths are
offered; pick one to execute it. Commands: /on and /off toggle the growth
engine, /log prints the diagnostic log, /quit exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer logger.Sync()

		eng, err := buildEngine(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}

		fmt.Println("mycelium chat (/on, /off, /log, /quit)")
		fmt.Println()

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			switch line {
			case "/quit", "/exit":
				return nil
			case "/on":
				eng.SetActive(true)
				fmt.Println("growth engine on")
				continue
			case "/off":
				eng.SetActive(false)
				fmt.Println("growth engine off")
				continue
			case "/log":
				printLog(eng.State().Logs)
				continue
			}

			if err := chatTurn(cmd, eng, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	},
}

// chatTurn submits one message and walks the suggest/select cycle.
func chatTurn(cmd *cobra.Command, eng *engine.Engine, text string) error {
	suggestions, err := eng.SubmitInput(cmd.Context(), text)
	if err != nil {
		return err
	}

	// An inactive engine answers immediately and surfaces no paths; the
	// reply is already on the conversation.
	if len(suggestions) == 0 {
		if msgs := eng.Messages(); len(msgs) > 0 {
			printReply(msgs[len(msgs)-1])
		}
		return nil
	}

	items := make([]string, len(suggestions))
	for i, s := range suggestions {
		items[i] = fmt.Sprintf("%-11s %s", s.Type, s.Title)
	}
	selectPrompt := promptui.Select{
		Label: "Growth paths",
		Items: items,
		Size:  len(items),
	}
	idx, _, err := selectPrompt.Run()
	if err != nil {
		// Aborting the menu leaves the suggestions pending; the next
		// message replaces them.
		return nil
	}

	msg, err := eng.SelectSuggestion(cmd.Context(), suggestions[idx].ID)
	if err != nil {
		return err
	}
	printReply(msg)
	return nil
}

func printReply(msg engine.Message) {
	fmt.Println()
	fmt.Println(msg.Content)
	if msg.Meta != nil {
		fmt.Printf("\n[%s · %s", msg.Meta.SuggestionType, msg.Meta.ModelUsed)
		if msg.Meta.Duration > 0 {
			fmt.Printf(" · %s", msg.Meta.Duration.Round(time.Millisecond))
		}
		fmt.Println("]")
		for _, c := range msg.Meta.Citations {
			fmt.Printf("  source: %s <%s>\n", c.Title, c.URI)
		}
	}
	fmt.Println()
}

func printLog(logs []engine.LogEntry) {
	if len(logs) == 0 {
		fmt.Println("log is empty")
		return
	}
	for _, entry := range logs {
		fmt.Printf("%s  %-8s %s\n", entry.Timestamp.Format("15:04:05"), entry.Type, entry.Message)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
