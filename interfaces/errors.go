package interfaces

import "errors"

var (
	// ErrInvalidArgument is wrapped by every caller-input validation failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotOwner is returned when an owner-only operation is invoked by anyone else.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrSystemPaused is returned by operations that require an active system.
	ErrSystemPaused = errors.New("not active")

	// ErrFeeMismatch is returned when the attached funds differ from the configured new asset fee.
	ErrFeeMismatch = errors.New("new asset fee is not correct")

	// ErrSupplyUnset is returned when the configured total asset supply is zero.
	ErrSupplyUnset = errors.New("token supply cannot be zero")

	// ErrInsufficientResources is returned when the remaining execution budget cannot cover
	// an irrevocable external call and its resumption.
	ErrInsufficientResources = errors.New("not enough execution budget left")

	// ErrUnauthorizedTarget is returned when an administrative command targets an address
	// that is neither the factory itself nor a registered sub-system.
	ErrUnauthorizedTarget = errors.New("not a pair sub-system")

	// ErrRegistryInconsistent is returned when the two registry indexes differ in size.
	ErrRegistryInconsistent = errors.New("the size of the 2 pair maps is not the same")

	// ErrPairNotFound is returned when no sub-system is registered for a pair in either order.
	ErrPairNotFound = errors.New("pair does not exist")

	// ErrDuplicatePair is returned when a pair key or sub-system address is already registered.
	ErrDuplicatePair = errors.New("pair already registered")

	// ErrConfigurationIncomplete is returned when a required configuration value is unset.
	ErrConfigurationIncomplete = errors.New("configuration incomplete")

	// ErrIdenticalAssets is returned when both assets of a pair are the same.
	ErrIdenticalAssets = errors.New("identical assets")

	// ErrInvalidAssetID is returned for malformed asset identifiers.
	ErrInvalidAssetID = errors.New("invalid asset identifier")

	// ErrQuoteAssetNotAllowed is returned when the second asset of a pair is not the allowed quote asset.
	ErrQuoteAssetNotAllowed = errors.New("second asset is not allowed")

	// ErrUnknownJob is returned when a callback references no pending provisioning context.
	ErrUnknownJob = errors.New("unknown provisioning job")

	// ErrInvalidIssuanceResult is returned when a successful issuance callback carries no issued asset.
	ErrInvalidIssuanceResult = errors.New("invalid issuance result")

	// ErrIssuanceRejected is returned when the issuing authority explicitly refused an issuance request.
	ErrIssuanceRejected = errors.New("issuance request rejected")

	// ErrIssuanceUnconfirmed is returned when it is unknown whether the issuing authority received
	// an issuance request. The job stays pending until its callback arrives.
	ErrIssuanceUnconfirmed = errors.New("issuance request not confirmed")

	// ErrPaymentNotVerified is returned when a payment reference does not prove the caller paid the factory.
	ErrPaymentNotVerified = errors.New("payment not verified")

	// ErrPaymentReused is returned when a payment was already spent on an earlier request.
	ErrPaymentReused = errors.New("payment already used")

	// ErrStateNotFound is returned by a state store that holds no snapshot yet.
	ErrStateNotFound = errors.New("state not found")
)
