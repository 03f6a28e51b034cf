package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clapper/internal/auth"
	"clapper/internal/queue"
	"clapper/internal/services"
)

const passwordEnv = "CLAPPER_PASSWORD"

// authEnv bundles the account components for one CLI invocation. The session
// mirror lives in the submission store so whoami works across invocations.
type authEnv struct {
	store   *queue.Store
	mirror  *auth.StoreMirror
	session *auth.Session
	service *auth.Service
}

func (e *authEnv) close() {
	e.session.Reset()
	_ = e.store.Close()
}

func (c *commandContext) authEnv(ctx context.Context) (*authEnv, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger()
	gateway, err := auth.NewFirebaseGatewayFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}
	mirror := auth.NewStoreMirror(store)
	session := auth.NewSession(gateway, mirror, logger)
	if err := session.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	service := auth.NewService(gateway,
		auth.WithPolicy(auth.PolicyFromConfig(cfg)),
		auth.WithLogger(logger),
	)
	return &authEnv{store: store, mirror: mirror, session: session, service: service}, nil
}

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign up, sign in, and manage the local account session",
	}
	authCmd.AddCommand(
		newAuthSignUpCommand(ctx),
		newAuthSignInCommand(ctx),
		newAuthGoogleCommand(ctx),
		newAuthResendCommand(ctx),
		newAuthSignOutCommand(ctx),
		newAuthWhoAmICommand(ctx),
	)
	return authCmd
}

func resolvePassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(passwordEnv)
}

// userError renders err the way the site shows it to visitors.
func userError(err error) error {
	return errors.New(services.UserMessage(err, "Something went wrong. Please try again."))
}

func newAuthSignUpCommand(ctx *commandContext) *cobra.Command {
	var req auth.SignUpRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and send the verification email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := ctx.authEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			req.Password = resolvePassword(req.Password)
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			result, err := env.service.SignUp(cmd.Context(), req)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (or set "+passwordEnv+")")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	return cmd
}

func newAuthSignInCommand(ctx *commandContext) *cobra.Command {
	var email, password string
	var resend bool
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := ctx.authEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.service.SignIn(cmd.Context(), email, resolvePassword(password))
			if err != nil {
				return handleUnverified(cmd, env, err, resend)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.Snapshot().Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set "+passwordEnv+")")
	cmd.Flags().BoolVar(&resend, "resend", false, "Resend the verification email if the address is unverified")
	return cmd
}

func newAuthGoogleCommand(ctx *commandContext) *cobra.Command {
	var idToken string
	cmd := &cobra.Command{
		Use:   "google",
		Short: "Sign in with a Google ID token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := ctx.authEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.service.SignInWithGoogle(cmd.Context(), idToken)
			if err != nil {
				return handleUnverified(cmd, env, err, false)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.Snapshot().Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&idToken, "id-token", "", "Google ID token from the sign-in popup")
	return cmd
}

func newAuthResendCommand(ctx *commandContext) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Resend the verification email for an unverified account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := ctx.authEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			_, err = env.service.SignIn(cmd.Context(), email, resolvePassword(password))
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "This email address is already verified.")
				return nil
			}
			return handleUnverified(cmd, env, err, true)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set "+passwordEnv+")")
	return cmd
}

// handleUnverified reports a refused sign-in. Verification tickets only live
// for this process, so resending happens here or not at all.
func handleUnverified(cmd *cobra.Command, env *authEnv, err error, resend bool) error {
	var pending *auth.VerificationRequiredError
	if !errors.As(err, &pending) {
		return userError(err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, auth.VerifyFirstMessage)
	if !resend {
		fmt.Fprintln(out, "Run again with --resend to send a new verification email.")
		return auth.ErrEmailNotVerified
	}
	message, resendErr := env.service.ResendVerification(cmd.Context(), pending.Ticket)
	if resendErr != nil {
		return userError(resendErr)
	}
	fmt.Fprintln(out, message)
	return nil
}

func newAuthSignOutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the local session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := ctx.authEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.service.SignOut(cmd.Context()); err != nil {
				return userError(err)
			}
			if err := env.mirror.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newAuthWhoAmICommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := ctx.authEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			snap, ok := env.session.Current()
			if !ok {
				if asJSON {
					return writeJSON(cmd, map[string]any{"signedIn": false})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if asJSON {
				return writeJSON(cmd, snap)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:      %s\n", snap.Name())
			fmt.Fprintf(out, "Email:     %s\n", snap.Email)
			fmt.Fprintf(out, "Verified:  %s\n", yesNo(snap.EmailVerified))
			if !snap.LastSignInAt.IsZero() {
				fmt.Fprintf(out, "Signed in: %s\n", snap.LastSignInAt.Local().Format("2006-01-02 15:04"))
			}
			if uid := strings.TrimSpace(snap.UID); uid != "" {
				fmt.Fprintf(out, "UID:       %s\n", uid)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
