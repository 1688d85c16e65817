package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/param"
	"github.com/davoodharun/apistack/internal/revision"
	"github.com/davoodharun/apistack/internal/stack"
	"github.com/davoodharun/apistack/internal/validate"
)

// paramsTokenEnv holds the token of the parameters and secrets extension.
const paramsTokenEnv = "AWS_SESSION_TOKEN"

type options struct {
	configPath     string
	env            string
	revision       string
	githubRepo     string
	githubRef      string
	paramsFile     string
	paramsEndpoint string
	outDir         string
	logFormat      string
	logLevel       string
}

// revisionSource picks the flag value, then GitHub, then the local checkout.
func (o *options) revisionSource() (revision.Source, error) {
	switch {
	case o.revision != "":
		return revision.Static(o.revision), nil
	case o.githubRepo != "":
		owner, repo, ok := strings.Cut(o.githubRepo, "/")
		if !ok || owner == "" || repo == "" {
			return nil, fmt.Errorf("--github-repo must be owner/repo, got %q", o.githubRepo)
		}
		return revision.NewGitHub("", owner, repo, o.githubRef), nil
	default:
		return revision.Git{Dir: "."}, nil
	}
}

// paramStore returns nil when no source was given; builds that need database
// parameters then fail with a provision error.
func (o *options) paramStore() (param.Store, error) {
	switch {
	case o.paramsFile != "" && o.paramsEndpoint != "":
		return nil, fmt.Errorf("--params and --params-endpoint are mutually exclusive")
	case o.paramsFile != "":
		return param.LoadFile(o.paramsFile)
	case o.paramsEndpoint != "":
		return param.NewHTTPStore(o.paramsEndpoint, os.Getenv(paramsTokenEnv)), nil
	}
	return nil, nil
}

func (o *options) build(ctx context.Context) (*stack.Stack, error) {
	if o.env == "" {
		return nil, fmt.Errorf("--env is required")
	}

	file, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	src, err := o.revisionSource()
	if err != nil {
		return nil, err
	}
	rev, err := src.Revision(ctx)
	if err != nil {
		return nil, err
	}

	store, err := o.paramStore()
	if err != nil {
		return nil, err
	}

	logger.Section(fmt.Sprintf("Building %s at %s", o.env, rev))
	return stack.Synthesize(ctx, o.env, file, config.EnvLookup, stack.Inputs{Revision: rev, Params: store})
}

// validateStages resolves every stage and reports all problems together.
func validateStages(configPath string) error {
	file, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var issues validate.Issues
	for _, env := range file.Environments() {
		if _, err := config.Resolve(env, file, config.EnvLookup); err != nil {
			logger.Error("Stage %s is invalid: %v", env, err)
			issues.Add(env, "%v", err)
			continue
		}
		logger.Success("Stage %s is valid", env)
	}
	return issues.OrNil()
}
