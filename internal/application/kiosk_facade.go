package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"pickup-verification/internal/domain"
	"pickup-verification/internal/domain/model"
	"pickup-verification/internal/infra/metrics"
)

// ErrQuit is returned by Dispatch when the operator asks to leave.
var ErrQuit = errors.New("quit")

// ErrUsage wraps malformed command lines.
var ErrUsage = errors.New("usage")

const helpText = `Commands:
  enroll "<child name>" <YYYY-MM-DD> <parent name>   issue the canonical code
  preview <code>                                    show variants that expand would register
  expand <code>                                     register tolerated variants for the code's identity
  verify <code>                                     check a code presented at pickup
  revoke <code>                                     deactivate a code
  revoke-all <code>                                 deactivate every code of the code's identity
  show <code>                                       show one record
  list [child name filter]                          list records in insertion order
  flush                                             save pending changes now
  stats                                             show pickup counters
  help                                              this text
  quit                                              leave`

// KioskFacade turns operator command lines into checkout use case calls.
// Every method returns the text to show; mutating commands flush afterwards.
type KioskFacade struct {
	uc       CheckoutUseCaseIface
	gatherer prometheus.Gatherer
}

// NewKioskFacade builds the facade. A nil gatherer means the default registry.
func NewKioskFacade(uc CheckoutUseCaseIface, gatherer prometheus.Gatherer) *KioskFacade {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &KioskFacade{uc: uc, gatherer: gatherer}
}

// Dispatch runs one command line. Empty lines return "".
func (k *KioskFacade) Dispatch(ctx context.Context, line string) (string, error) {
	args, err := SplitArgs(line)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(args) == 0 {
		return "", nil
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "enroll":
		return k.HandleEnroll(ctx, rest)
	case "preview":
		return k.HandlePreview(ctx, rest)
	case "expand":
		return k.HandleExpand(ctx, rest)
	case "verify":
		return k.HandleVerify(ctx, rest)
	case "revoke":
		return k.HandleRevoke(ctx, rest)
	case "revoke-all":
		return k.HandleRevokeAll(ctx, rest)
	case "show":
		return k.HandleShow(ctx, rest)
	case "list":
		return k.HandleList(ctx, rest)
	case "flush":
		if err := k.uc.Flush(ctx); err != nil {
			return "", err
		}
		return "saved.", nil
	case "stats":
		return k.HandleStats(ctx)
	case "help", "?":
		return helpText, nil
	case "quit", "exit":
		return "bye.", ErrQuit
	default:
		return "", fmt.Errorf("%w: unknown command %q (try help)", ErrUsage, cmd)
	}
}

// HandleEnroll issues the canonical code for an identity.
func (k *KioskFacade) HandleEnroll(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf(`%w: enroll "<child name>" <YYYY-MM-DD> [parent name]`, ErrUsage)
	}
	parent := strings.Join(args[2:], " ")
	id, err := model.NewIdentity(args[0], args[1], parent)
	if err != nil {
		return "", err
	}
	rec, inserted, err := k.uc.Enroll(ctx, *id)
	if err != nil {
		return "", err
	}
	var out string
	if inserted {
		out = fmt.Sprintf("code for %s: %s", id.ChildName, rec.Code)
	} else {
		out = fmt.Sprintf("code %s already registered for %s", rec.Code, rec.Identity.ChildName)
	}
	return k.afterMutation(ctx, out), nil
}

// HandlePreview lists what expand would register, with each variant's class.
func (k *KioskFacade) HandlePreview(ctx context.Context, args []string) (string, error) {
	rec, err := k.lookup(args, "preview <code>")
	if err != nil {
		return "", err
	}
	variants, err := k.uc.PreviewVariants(rec.Identity)
	if err != nil {
		return "", err
	}
	if len(variants) == 0 {
		return "no variants under the current policy.", nil
	}
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%d variants for %s:\n", len(variants), rec.Identity.ChildName)
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	for _, v := range variants {
		fmt.Fprintf(tw, "  %s\t%s\n", v.Code, v.Class)
	}
	_ = tw.Flush()
	return strings.TrimRight(sb.String(), "\n"), nil
}

// HandleExpand registers the variants for the identity behind a code.
func (k *KioskFacade) HandleExpand(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expand <code>", ErrUsage)
	}
	registered, err := k.uc.ExpandByCode(ctx, args[0])
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("%d variant codes registered.", len(registered))
	if len(registered) > 0 {
		out += "\n  " + strings.Join(registered, "\n  ")
	}
	return k.afterMutation(ctx, out), nil
}

// HandleVerify checks a presented code. The code is taken verbatim.
func (k *KioskFacade) HandleVerify(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: verify <code>", ErrUsage)
	}
	res := k.uc.Verify(ctx, args[0])
	if !res.Accepted {
		switch res.Reason {
		case model.MatchReasonRateLimited:
			return "REJECTED: too many attempts, wait a minute and try again.", nil
		default:
			return "REJECTED: code does not match an active record. Do not release the child.", nil
		}
	}
	id := res.Identity
	return fmt.Sprintf("ACCEPTED: release %s (born %s), guardian on file: %s.",
		id.ChildName, id.DateOfBirth.Format(model.DateOfBirthLayout), orDash(id.ParentName)), nil
}

func (k *KioskFacade) HandleRevoke(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: revoke <code>", ErrUsage)
	}
	if !k.uc.Revoke(ctx, args[0]) {
		return "", fmt.Errorf("revoke %q: %w", args[0], domain.ErrNotFound)
	}
	return k.afterMutation(ctx, "revoked."), nil
}

// HandleRevokeAll deactivates the canonical code and every variant of the
// identity behind a code.
func (k *KioskFacade) HandleRevokeAll(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: revoke-all <code>", ErrUsage)
	}
	revoked, err := k.uc.RevokeIdentity(ctx, args[0])
	if err != nil {
		return "", err
	}
	if len(revoked) == 0 {
		return "no active codes left for that identity.", nil
	}
	return k.afterMutation(ctx, fmt.Sprintf("%d codes revoked.", len(revoked))), nil
}

func (k *KioskFacade) HandleShow(ctx context.Context, args []string) (string, error) {
	rec, err := k.lookup(args, "show <code>")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n  child: %s\n  born: %s\n  guardian: %s\n  status: %s\n  origin: %s\n  generated: %s",
		rec.Code, rec.Identity.ChildName, rec.Identity.DateOfBirth.Format(model.DateOfBirthLayout),
		orDash(rec.Identity.ParentName), rec.Status, rec.Origin,
		rec.GeneratedDate.Format(model.DateOfBirthLayout)), nil
}

func (k *KioskFacade) HandleList(ctx context.Context, args []string) (string, error) {
	recs := k.uc.List(strings.Join(args, " "))
	if len(recs) == 0 {
		return "no codes.", nil
	}
	sb := strings.Builder{}
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tCHILD\tBORN\tSTATUS\tORIGIN")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Code, r.Identity.ChildName,
			r.Identity.DateOfBirth.Format(model.DateOfBirthLayout), r.Status, r.Origin)
	}
	_ = tw.Flush()
	fmt.Fprintf(&sb, "%d codes", len(recs))
	return sb.String(), nil
}

func (k *KioskFacade) HandleStats(ctx context.Context) (string, error) {
	samples, err := metrics.Summary(k.gatherer)
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}
	if len(samples) == 0 {
		return "no activity yet.", nil
	}
	sb := strings.Builder{}
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	for _, s := range samples {
		fmt.Fprintf(tw, "%s\t%s\t%g\n", s.Name, s.Labels, s.Value)
	}
	_ = tw.Flush()
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (k *KioskFacade) lookup(args []string, usage string) (*model.VerificationCode, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s", ErrUsage, usage)
	}
	rec, ok := k.uc.Lookup(args[0])
	if !ok {
		return nil, fmt.Errorf("code %q: %w", args[0], domain.ErrNotFound)
	}
	return rec, nil
}

// afterMutation persists right away; a failed save is reported but the
// command itself still succeeded in memory.
func (k *KioskFacade) afterMutation(ctx context.Context, out string) string {
	if err := k.uc.Flush(ctx); err != nil {
		return out + "\n(warning: not saved yet: " + err.Error() + ")"
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
