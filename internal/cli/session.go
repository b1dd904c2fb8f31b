package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/config"
	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/ir"
	"github.com/OxanaKozlova/workflow/internal/listener"
	"github.com/OxanaKozlova/workflow/internal/store"
)

// WorkflowOptions holds the flags shared by commands that operate on one
// workflow.
type WorkflowOptions struct {
	*RootOptions
	Definition string
	Workflow   string
}

// session is one CLI invocation's engine: the loaded spec, a SQLite-backed
// workflow with guard and audit listeners, and the event publisher when
// WORKFLOW_AMQP_URL is set.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	spec     ir.WorkflowSpec
	def      *ir.Definition
	store    *store.Store
	markings *store.MarkingStore
	workflow *engine.Workflow
	conn     *listener.Connection
}

// openSession loads the definition and opens the database. When publish is
// set and an AMQP URL is configured, engine events are published too.
func openSession(opts *WorkflowOptions, publish bool) (*session, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := cfg.Logger(opts.Verbose)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig+": logger", err)
	}

	spec, err := LoadSpec(opts.Definition, opts.Workflow)
	if err != nil {
		return nil, err
	}

	def, err := compiler.ValidateSpec(spec)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return nil, convertLoadError(opts.Definition, err)
		}
		return nil, err
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}

	s := &session{cfg: cfg, logger: logger, spec: spec, def: def, store: st}
	if err := s.build(publish); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) build(publish bool) error {
	var storeOpts []store.MarkingStoreOption
	if s.spec.StoreKind() == ir.StoreSingleState {
		storeOpts = append(storeOpts, store.WithSinglePlace())
	}
	markings, err := s.store.ForWorkflow(s.spec.Name, s.def, storeOpts...)
	if err != nil {
		return &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	s.markings = markings

	dispatcher := engine.NewEventDispatcher()
	guard, err := listener.NewGuard(s.spec.Name, s.spec.Guards(), s.logger)
	if err != nil {
		return err
	}
	guard.Register(dispatcher)
	listener.NewAuditTrail(s.logger).Register(dispatcher)

	var d engine.Dispatcher = dispatcher
	var ms engine.MarkingStore = markings
	if publish && s.cfg.AMQPURL != "" {
		conn, err := listener.Dial(s.cfg.AMQPURL, s.cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		s.conn = conn
		pub := listener.NewPublisher(dispatcher, conn, s.cfg.AMQPExchange,
			listener.WithPublisherLogger(s.logger))
		d = pub
		ms = pub.Store(markings)
	}

	s.workflow, err = engine.Build(s.spec, ms,
		engine.WithDispatcher(d),
		engine.WithLogger(s.logger))
	return err
}

// Close releases the broker connection and the database.
func (s *session) Close() error {
	var errs []error
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	errs = append(errs, s.store.Close())
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

// openStore opens the configured database without loading a definition.
func openStore(opts *RootOptions) (*store.Store, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	return st, nil
}

// subjectRef is a subject known only by its id.
type subjectRef string

func (s subjectRef) SubjectID() string { return string(s) }

func addWorkflowFlags(cmd *cobra.Command, opts *WorkflowOptions) {
	cmd.Flags().StringVarP(&opts.Definition, "definition", "d", "", "definition file (.cue, .yaml) or CUE package directory")
	cmd.Flags().StringVarP(&opts.Workflow, "workflow", "w", "", "workflow name (optional when the definition has one workflow)")
	_ = cmd.MarkFlagRequired("definition")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
