package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
	"github.com/arthurcarlsonn/patinhas-e-cora-sub000/activitymap"
	"github.com/arthurcarlsonn/patinhas-e-cora-sub000/identity"
)

type demoOptions struct {
	email    string
	password string
	role     string
	path     string
}

type snapshotView struct {
	Step          string           `json:"step"`
	Authenticated bool             `json:"authenticated"`
	UserID        string           `json:"user_id,omitempty"`
	Email         string           `json:"email,omitempty"`
	Role          auth.Role        `json:"role"`
	Loading       bool             `json:"loading"`
	Flags         auth.RoleFlagSet `json:"flags"`
	Location      string           `json:"location"`
}

func newDemoCmd(root *rootOptions) *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted session against the in-process backend",
		Long: `Sign up, sign in and sign out against the in-process identity backend,
printing the router state after every step. Flags are written to the
configured store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}

			flags, closeStore, err := openFlagStore(cmd.Context(), cfg.FlagStore)
			if err != nil {
				return err
			}
			defer closeStore()

			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg, flags, root.logger(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "demo@patinhas.local", "account email")
	cmd.Flags().StringVar(&opts.password, "password", "patinhas123", "account password")
	cmd.Flags().StringVar(&opts.role, "role", string(auth.RoleCompany), "account role")
	cmd.Flags().StringVar(&opts.path, "path", "/empresas/entrar", "page where the sign in happens")

	return cmd
}

func runDemo(ctx context.Context, out io.Writer, cfg Config, flags auth.RoleFlags, logger auth.Logger, opts *demoOptions) error {
	role, ok := auth.ParseRole(opts.role)
	if !ok {
		return fmt.Errorf("%w: %q", auth.ErrInvalidRole, opts.role)
	}

	backend, err := identity.New(identity.Config{DeterministicIDs: true}, identity.WithLogger(logger))
	if err != nil {
		return err
	}

	current := "/"
	router := auth.NewRouter(backend,
		auth.WithConfig(cfg.Auth),
		auth.WithMessages(cfg.Messages),
		auth.WithRoleFlags(flags),
		auth.WithLogger(logger),
		auth.WithLocation(func() string { return current }),
		auth.WithNavigator(auth.NavigatorFunc(func(_ context.Context, path string) error {
			fmt.Fprintf(out, "-> navigate %s\n", path)
			current = path
			return nil
		})),
		auth.WithNotifier(auth.NotifierFunc(func(_ context.Context, n auth.Notification) {
			fmt.Fprintf(out, "[%s] %s %s\n", n.Level, n.Title, n.Message)
		})),
		auth.WithActivitySink(activitymap.Sink(func(_ context.Context, n activitymap.Normalized) error {
			fmt.Fprintf(out, "* %s actor=%s\n", n.Verb, n.ActorID)
			return nil
		}, activitymap.WithActorFallback("demo"))),
	)

	if err := router.Start(ctx); err != nil {
		return err
	}
	defer router.Close()

	show := func(step string) error {
		set, err := flags.Get(ctx)
		if err != nil {
			return err
		}
		state := router.State()
		view := snapshotView{
			Step:          step,
			Authenticated: state.IsAuthenticated(),
			UserID:        state.Session.UserID(),
			Role:          state.Role,
			Loading:       state.Loading,
			Flags:         set,
			Location:      current,
		}
		if state.Principal != nil {
			view.Email = state.Principal.Email
		}
		fmt.Fprintln(out, print.MaybePrettyJSON(view))
		return nil
	}

	if err := show("initialized"); err != nil {
		return err
	}

	if err := router.SignUp(ctx, opts.email, opts.password, role, nil); err != nil {
		return err
	}

	current = auth.NormalizePath(opts.path)
	if err := router.SignIn(ctx, opts.email, opts.password); err != nil {
		return err
	}
	if err := show("signed in"); err != nil {
		return err
	}

	if err := router.SignOut(ctx); err != nil {
		return err
	}
	return show("signed out")
}
