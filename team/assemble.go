package team

import (
	"time"

	"github.com/hupe1980/teammesh/hierarchy"
	"github.com/hupe1980/teammesh/logging"
	"github.com/hupe1980/teammesh/model"
	"github.com/hupe1980/teammesh/tool"
	"github.com/hupe1980/teammesh/transcript"
)

// AssemblerOptions configures an Assembler instance.
type AssemblerOptions struct {
	// HistoryEnabled lets the delegator see prior conversation turns when
	// routing. Matches the upstream default.
	HistoryEnabled bool

	// MaxModelCalls bounds model invocations per turn (routing included).
	// 0 means unlimited.
	MaxModelCalls int

	// Logger defaults to NoOp if nil.
	Logger logging.Logger
}

// Assembler builds runtime teams from hierarchy configurations through the
// provider- and kind-keyed registries resolved at construction time. It is
// stateless across Assemble calls and safe for concurrent use.
type Assembler struct {
	models      *model.Registry
	tools       *tool.Registry
	transcripts transcript.Store
	opts        AssemblerOptions
}

// NewAssembler constructs an Assembler over the given registries and
// transcript store.
func NewAssembler(models *model.Registry, tools *tool.Registry, transcripts transcript.Store, optFns ...func(o *AssemblerOptions)) *Assembler {
	opts := AssemblerOptions{
		HistoryEnabled: true,
		MaxModelCalls:  6,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Assembler{models: models, tools: tools, transcripts: transcripts, opts: opts}
}

// Assemble builds a runtime Team from a configuration snapshot. Structure is
// deterministic for a given configuration: members appear in config order,
// tools in spec order. Unknown providers should have been normalized away
// upstream; when one still appears (configs persisted under an older build)
// the member falls back to the default provider/model pair rather than
// failing the whole assembly.
func (a *Assembler) Assemble(cfg *hierarchy.Config) (*Team, error) {
	start := time.Now()

	members := make([]*Member, 0, len(cfg.Agents))
	for _, spec := range cfg.Agents {
		member, err := a.assembleMember(spec)
		if err != nil {
			logging.LogAssembly(a.opts.Logger, cfg.TenantID, cfg.InstanceID, 0, time.Since(start), err)
			return nil, err
		}
		members = append(members, member)
	}

	delegatorModel, err := a.bindModel(hierarchy.DefaultProvider, hierarchy.DefaultModelID, "delegator")
	if err != nil {
		logging.LogAssembly(a.opts.Logger, cfg.TenantID, cfg.InstanceID, 0, time.Since(start), err)
		return nil, err
	}

	t := &Team{
		tenantID:   cfg.TenantID,
		instanceID: cfg.InstanceID,
		delegator: &Delegator{
			llm:            delegatorModel,
			instructions:   cfg.DelegatorInstructions,
			historyEnabled: a.opts.HistoryEnabled,
			logger:         a.opts.Logger,
		},
		members:       members,
		transcripts:   a.transcripts,
		logger:        a.opts.Logger,
		maxModelCalls: a.opts.MaxModelCalls,
	}

	logging.LogAssembly(a.opts.Logger, cfg.TenantID, cfg.InstanceID, len(members), time.Since(start), nil)
	return t, nil
}

func (a *Assembler) assembleMember(spec hierarchy.AgentSpec) (*Member, error) {
	llm, err := a.bindModel(spec.Provider, spec.ModelID, spec.Name)
	if err != nil {
		return nil, err
	}

	tools := make([]tool.Tool, 0, len(spec.Tools))
	for _, ts := range spec.Tools {
		tl, registered, err := a.tools.Resolve(ts)
		if err != nil {
			return nil, &ToolBindingError{Agent: spec.Name, Kind: ts.Kind, Err: err}
		}
		if !registered {
			// Normalization drops unknown kinds, so this only happens for
			// configs persisted under a build with more kinds than this one.
			a.opts.Logger.Warn("tool kind not registered, skipping binding",
				"kind", string(ts.Kind), "agent", spec.Name)
			continue
		}
		tools = append(tools, tl)
	}

	return &Member{spec: spec.Clone(), llm: llm, tools: tools}, nil
}

// bindModel resolves a provider/model pair, falling back to the default
// pair when the provider is not registered.
func (a *Assembler) bindModel(provider hierarchy.ModelProvider, modelID, agentName string) (model.Model, error) {
	llm, registered, err := a.models.Resolve(provider, modelID)
	if err != nil {
		return nil, &ModelBindingError{Agent: agentName, Provider: provider, ModelID: modelID, Err: err}
	}
	if registered {
		return llm, nil
	}

	a.opts.Logger.Warn("model provider not registered, falling back to default",
		"provider", string(provider), "agent", agentName, "default", string(hierarchy.DefaultProvider))
	llm, registered, err = a.models.Resolve(hierarchy.DefaultProvider, hierarchy.DefaultModelID)
	if err != nil || !registered {
		if err == nil {
			err = errNoDefaultProvider
		}
		return nil, &ModelBindingError{Agent: agentName, Provider: hierarchy.DefaultProvider, ModelID: hierarchy.DefaultModelID, Err: err}
	}
	return llm, nil
}

var errNoDefaultProvider = &noDefaultProviderError{}

type noDefaultProviderError struct{}

func (*noDefaultProviderError) Error() string {
	return "default provider is not registered"
}
