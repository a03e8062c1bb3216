package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
	"github.com/dmitrymomot/vaultcore/pkg/session"
	"github.com/dmitrymomot/vaultcore/pkg/totp"
)

// backupCodesKey holds hashes of the current backup codes.
const backupCodesKey = "ledgy-backup-codes"

// rememberFlags are shared by setup and unlock.
type rememberFlags struct {
	remember   bool
	passphrase bool
	expires    string
}

func (f *rememberFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.remember, "remember", false, "keep the vault restorable after this process exits")
	cmd.Flags().BoolVar(&f.passphrase, "passphrase", false, "protect the remembered secret with a passphrase (implies --remember)")
	cmd.Flags().StringVar(&f.expires, "expires", session.ExpiryNever, "remembered session lifetime: "+strings.Join(session.ExpiryPresets(), ", "))
}

func (a *app) unlockOptions(f *rememberFlags) (session.UnlockOptions, error) {
	opts := session.UnlockOptions{Remember: f.remember || f.passphrase}
	if !opts.Remember {
		return opts, nil
	}
	d, err := session.ParseExpiry(f.expires)
	if err != nil {
		return opts, err
	}
	opts.ExpiresIn = d
	if f.passphrase {
		if opts.Passphrase, err = a.prompt.NewPassphrase(); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (a *app) setupCmd() *cobra.Command {
	var (
		flags  rememberFlags
		qrPath string
		secret string
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Generate a TOTP secret and register it with an authenticator app",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if a.mgr.IsRegistered() {
				return errors.New("vault is already set up; run reset first")
			}

			if secret == "" {
				var err error
				if _, secret, err = totp.GenerateSecretWithEncoding(); err != nil {
					return err
				}
			} else if _, err := totp.DecodeSecret(secret); err != nil {
				return err
			}
			uri, err := totp.BuildProvisioningURI(secret, a.cfg.Account, a.cfg.Issuer)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Secret: %s\nURI:    %s\n", secret, uri)
			if qrPath != "" {
				png, err := totp.ProvisioningQRCode(uri, 0)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qrPath, png, 0o600); err != nil {
					return fmt.Errorf("failed to write QR code: %w", err)
				}
				fmt.Fprintf(a.out, "QR code written to %s\n", qrPath)
			}

			opts, err := a.unlockOptions(&flags)
			if err != nil {
				return err
			}
			code, err := a.prompt.Line("Enter the 6-digit code from your app: ")
			if err != nil {
				return err
			}
			if err := a.mgr.Register(ctx, secret, code, opts); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Vault set up and unlocked.")
			return nil
		}),
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&qrPath, "qr", "", "write the provisioning QR code as PNG to this path")
	cmd.Flags().StringVar(&secret, "secret", "", "import an existing Base32 secret instead of generating one")
	return cmd
}

func (a *app) unlockCmd() *cobra.Command {
	var flags rememberFlags
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Unlock with a one-time code, optionally remembering the session",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			switch {
			case !a.mgr.IsRegistered():
				return errors.New("vault is not set up; run setup first")
			case a.mgr.IsUnlocked():
				fmt.Fprintln(a.out, "Vault unlocked from remembered session.")
				return nil
			case a.mgr.NeedsPassphrase():
				return a.unlockWithPassphrase(ctx)
			}

			opts, err := a.unlockOptions(&flags)
			if err != nil {
				return err
			}
			if err := a.unlockWithCode(ctx, opts); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Vault unlocked.")
			return nil
		}),
	}
	flags.bind(cmd)
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore a remembered session with its passphrase",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if !a.mgr.NeedsPassphrase() {
				return errors.New("no passphrase protected session to restore")
			}
			return a.unlockWithPassphrase(ctx)
		}),
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the vault and rate limit state",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			snap := a.mgr.Snapshot()
			fmt.Fprintf(a.out, "status:           %s\n", snap.Status)
			fmt.Fprintf(a.out, "needs passphrase: %t\n", snap.NeedsPassphrase)
			fmt.Fprintf(a.out, "remember me:      %t\n", snap.Record.RememberMe)
			if deadline, ok := snap.Record.ExpiryTime(); ok {
				fmt.Fprintf(a.out, "remembered until: %s\n", deadline.Local().Format(time.RFC3339))
			}

			decision, err := a.mgr.CanAttempt(ctx)
			if err != nil {
				return err
			}
			if decision.Allowed {
				fmt.Fprintln(a.out, "attempts:         allowed")
			} else {
				fmt.Fprintf(a.out, "attempts:         blocked for %ds\n", decision.WaitSeconds())
			}
			left, err := a.limiter.RemainingAttempts(ctx, a.account)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "attempts left:    %d\n", left)
			return nil
		}),
	}
}

func (a *app) resetCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the secret and every remembered session",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if !force {
				ok, err := a.prompt.Confirm("This removes the vault secret. Sealed items become unreadable. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("aborted")
				}
			}
			if err := a.mgr.Reset(ctx); err != nil {
				return err
			}
			if err := a.limiter.Reset(ctx, a.account); err != nil {
				return err
			}
			if err := a.kv.Delete(ctx, backupCodesKey); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
				return err
			}
			fmt.Fprintln(a.out, "Vault reset.")
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) sealCmd() *cobra.Command {
	var value string
	cmd := &cobra.Command{
		Use:   "seal <id>",
		Short: "Encrypt a value (stdin by default) with the vault key and store it",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if err := a.ensureUnlocked(ctx); err != nil {
				return err
			}
			data := []byte(value)
			if value == "" {
				var err error
				if data, err = io.ReadAll(a.prompt.in); err != nil {
					return fmt.Errorf("failed to read value: %w", err)
				}
			}
			if err := a.mgr.SealDocument(ctx, args[0], data); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Sealed %s.\n", args[0])
			return nil
		}),
	}
	cmd.Flags().StringVar(&value, "value", "", "value to seal instead of reading stdin")
	return cmd
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Decrypt a sealed item and print it",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if err := a.ensureUnlocked(ctx); err != nil {
				return err
			}
			data, err := a.mgr.OpenDocument(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		}),
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a sealed item",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.mgr.DeleteDocument(ctx, args[0])
		}),
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List sealed item ids",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			lister, ok := a.docs.(interface {
				List(ctx context.Context) ([]string, error)
			})
			if !ok {
				return fmt.Errorf("document backend %q cannot list items", a.cfg.Docs)
			}
			ids, err := lister.List(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(a.out, id)
			}
			return nil
		}),
	}
}

func (a *app) backupCodesCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "backup-codes",
		Short: "Generate a new set of one-time backup codes",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if err := a.ensureUnlocked(ctx); err != nil {
				return err
			}
			codes, err := totp.GenerateBackupCodes(count)
			if err != nil {
				return err
			}
			hashes := make([]string, 0, len(codes))
			for _, c := range codes {
				hashes = append(hashes, totp.HashBackupCode(c))
			}
			if err := kvstore.SetJSON(ctx, a.kv, backupCodesKey, hashes); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Store these codes somewhere safe. Each can be used once.")
			for _, c := range codes {
				fmt.Fprintln(a.out, c)
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of codes")
	return cmd
}

// ensureUnlocked prompts for whatever the current state needs.
func (a *app) ensureUnlocked(ctx context.Context) error {
	switch {
	case a.mgr.IsUnlocked():
		return nil
	case a.mgr.NeedsPassphrase():
		return a.unlockWithPassphrase(ctx)
	case a.mgr.IsRegistered():
		return a.unlockWithCode(ctx, session.UnlockOptions{})
	}
	return errors.New("vault is not set up; run setup first")
}

func (a *app) unlockWithCode(ctx context.Context, opts session.UnlockOptions) error {
	if err := a.checkAttempt(ctx); err != nil {
		return err
	}
	code, err := a.prompt.Line("Code: ")
	if err != nil {
		return err
	}
	return a.mgr.Unlock(ctx, code, opts)
}

func (a *app) unlockWithPassphrase(ctx context.Context) error {
	if err := a.checkAttempt(ctx); err != nil {
		return err
	}
	passphrase, err := a.prompt.Secret("Passphrase: ")
	if err != nil {
		return err
	}
	if err := a.mgr.UnlockWithPassphrase(ctx, passphrase); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Vault restored.")
	return nil
}

// checkAttempt fails before prompting when the rate limiter would reject the answer anyway.
func (a *app) checkAttempt(ctx context.Context) error {
	decision, err := a.mgr.CanAttempt(ctx)
	if err != nil {
		return err
	}
	return decision.Err()
}
