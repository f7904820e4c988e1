package dlm

import "github.com/Dorico-Dynamics/txova-go-redlock/apperrors"

// Sentinel errors for the closed taxonomy in spec.md §7. Match with
// errors.Is; apperrors.Error.Is compares by code, so any *apperrors.Error
// built with the same code satisfies errors.Is(err, ErrCannotObtain) even
// if the message and wrapped cause differ.
var (
	// ErrNotEnoughMasters: construction could not reach a quorum of nodes.
	ErrNotEnoughMasters = apperrors.New(apperrors.CodeNotEnoughMasters, "not enough usable master nodes")
	// ErrCannotObtain: all acquisition passes failed quorum or validity.
	ErrCannotObtain = apperrors.New(apperrors.CodeCannotObtain, "could not obtain lock")
	// ErrReleaseIncomplete: release could not confirm deletion everywhere.
	ErrReleaseIncomplete = apperrors.New(apperrors.CodeReleaseIncomplete, "release incomplete on one or more nodes")
	// ErrInvalidArgument: ttl <= 0 or empty resource name.
	ErrInvalidArgument = apperrors.New(apperrors.CodeInvalidArgument, "invalid argument")
)
