package builder

import "context"

// OutcomeKind tags the result of a two-step validation attempt. Destination
// validation never starts when the source fails, so at most one side carries
// a message.
type OutcomeKind string

const (
	OutcomeOK                 OutcomeKind = "ok"
	OutcomeMissingConnectors  OutcomeKind = "missing_connectors"
	OutcomeSourceInvalid      OutcomeKind = "source_invalid"
	OutcomeDestinationInvalid OutcomeKind = "destination_invalid"
)

type Outcome struct {
	Kind    OutcomeKind
	Message string
}

func (o Outcome) OK() bool {
	return o.Kind == OutcomeOK
}

// ValidateConfigs runs the remote validation protocol: source first, then
// destination only if the source passed. Error maps are cleared up front;
// a failure lands as a single aggregate message under the role's "_form"
// key. Ordering is deliberate so the user sees one error state at a time,
// in the natural left-to-right configuration order.
func (b *Builder) ValidateConfigs(ctx context.Context) Outcome {
	source, okSource := b.connectorByName(b.sourceName)
	destination, okDestination := b.connectorByName(b.destinationName)
	if !okSource || !okDestination {
		b.setNotice(ToneError, "Select both source and destination connectors first.")
		return Outcome{Kind: OutcomeMissingConnectors}
	}

	b.validating = true
	defer func() { b.validating = false }()

	b.sourceErrors = map[string]string{}
	b.destinationErrors = map[string]string{}

	if _, err := b.api.ValidateConnectorConfig(ctx, source.Name, b.sourceConfig); err != nil {
		message := apiErrorMessage(err, "Source configuration is invalid.")
		if !b.closed {
			b.sourceErrors[FormErrorKey] = message
		}
		return Outcome{Kind: OutcomeSourceInvalid, Message: message}
	}

	if _, err := b.api.ValidateConnectorConfig(ctx, destination.Name, b.destinationConfig); err != nil {
		message := apiErrorMessage(err, "Destination configuration is invalid.")
		if !b.closed {
			b.destinationErrors[FormErrorKey] = message
		}
		return Outcome{Kind: OutcomeDestinationInvalid, Message: message}
	}

	if !b.closed {
		b.setNotice(ToneSuccess, "Connector settings validated.")
	}
	return Outcome{Kind: OutcomeOK}
}
