package cmd

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/choropleth"
	"github.com/zalepa/infractions/config"
	"github.com/zalepa/infractions/filter"
	"github.com/zalepa/infractions/pages"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "infractions",
	Short: "Australian traffic infraction statistics",
	Long:  "Loads the traffic infraction datasets and renders the dashboard pages as terminal tables, charts, reports, exports or an HTTP API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// stateFlags selects a page state from the command line, using the same
// parameter names as the HTTP API.
type stateFlags struct {
	set        []string
	enabled    string
	colorBlind bool
	sort       string
	focus      string
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "control selection as name=value (repeatable), e.g. --set mode=camera")
	cmd.Flags().StringVar(&f.enabled, "enabled", "", "comma separated categories to show (default all)")
	cmd.Flags().BoolVar(&f.colorBlind, "colorblind", false, "use the colour-blind palette")
	cmd.Flags().StringVar(&f.sort, "sort", "", "item order: fixed or rate")
	cmd.Flags().StringVar(&f.focus, "focus", "", "category to isolate")
}

func (f *stateFlags) values() (url.Values, error) {
	q := url.Values{}
	for _, kv := range f.set {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, eris.Errorf("invalid --set %q, want name=value", kv)
		}
		q.Set(name, value)
	}
	if f.enabled != "" {
		q.Set("enabled", f.enabled)
	}
	if f.colorBlind {
		q.Set("colorblind", "on")
	}
	if f.sort != "" {
		q.Set("sort", f.sort)
	}
	if f.focus != "" {
		q.Set("focus", f.focus)
	}
	return q, nil
}

func (f *stateFlags) state(p pages.Page) (filter.State, error) {
	q, err := f.values()
	if err != nil {
		return filter.State{}, err
	}
	return pages.QueryState(p, q), nil
}

// loadPages loads the named pages, or every page when ids is empty. Pages
// whose data failed to load come back as error pages.
func loadPages(ctx context.Context, ids []string) ([]pages.Page, error) {
	src := cfg.Data.Sources()
	if len(ids) == 0 {
		return pages.LoadAll(ctx, src)
	}
	out := make([]pages.Page, 0, len(ids))
	for _, id := range ids {
		p, err := pages.Load(ctx, id, src)
		if p == nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// loadBoundaries reads the configured region shapefile. Without one, maps
// are drawn with capital-city markers.
func loadBoundaries() (choropleth.Boundaries, error) {
	if cfg.Map.Boundaries == "" {
		return nil, nil
	}
	b, err := choropleth.LoadBoundaries(cfg.Map.Boundaries, cfg.Map.NameField)
	if err != nil {
		return nil, eris.Wrap(err, "load boundaries")
	}
	return b, nil
}
