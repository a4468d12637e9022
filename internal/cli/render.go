package cli

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/config"
	"quiz-option-service/internal/domain"
	"quiz-option-service/internal/markup"
)

// NewRenderCmd renders a question offline and prints its state, or only the markup.
func NewRenderCmd(configPath *string) *cobra.Command {
	var (
		options    string
		answer     string
		shuffle    bool
		seed       int64
		markupOnly bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a question's options without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			opts := app.RenderOptions{
				Shuffle:    shuffle || cfg.Quiz.Shuffle,
				MultiLabel: cfg.Quiz.MultiLabel,
				InnerText:  markup.InnerText,
			}
			if opts.Shuffle {
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				opts.Rand = rand.New(rand.NewSource(seed))
			}

			state, err := app.Render(markup.NewDocument(), domain.Question{ID: "cli", OptionsHTML: options, AnswerHTML: answer}, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if markupOnly {
				_, err := fmt.Fprintln(out, state.List)
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(state)
		},
	}
	cmd.Flags().StringVar(&options, "options", "", "options container HTML")
	cmd.Flags().StringVar(&answer, "answer", "", "answer-key text, e.g. \"AC\"")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle options (also enabled by quiz.shuffle)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (0 picks one)")
	cmd.Flags().BoolVar(&markupOnly, "markup", false, "print only the rendered markup")
	_ = cmd.MarkFlagRequired("options")
	_ = cmd.MarkFlagRequired("answer")
	return cmd
}
