package config

import (
	"fmt"

	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
)

// Environment selects the warehouse database a run loads into.
type Environment string

const (
	EnvDev   Environment = "dev"
	EnvMeddw Environment = "meddw"

	DefaultEnvironment = EnvMeddw
)

// Environments lists the accepted selectors.
var Environments = []Environment{EnvDev, EnvMeddw}

// ParseEnvironment reads the optional positional selector. defaulted reports
// whether no selector was given and DefaultEnvironment was used.
func ParseEnvironment(args []string) (env Environment, defaulted bool, err error) {
	if len(args) == 0 || args[0] == "" {
		return DefaultEnvironment, true, nil
	}
	if len(args) > 1 {
		return "", false, apperrors.WrapError(nil, apperrors.ErrConfiguration,
			fmt.Sprintf("expected one environment argument, got %d", len(args)))
	}
	for _, e := range Environments {
		if Environment(args[0]) == e {
			return e, false, nil
		}
	}
	return "", false, apperrors.WrapError(nil, apperrors.ErrConfiguration,
		fmt.Sprintf("illegal db name %q (want one of %v)", args[0], Environments))
}
