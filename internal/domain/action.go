package domain

// Action identifies a body-carrying gateway operation. Its value is the last
// path segment of the route that triggers it.
type Action string

// Supported actions.
const (
	ActionFind       Action = "find"
	ActionFindOne    Action = "find_one"
	ActionInsertOne  Action = "insert"
	ActionInsertMany Action = "insert_many"
	ActionAggregate  Action = "aggregate"
)

// Actions lists every body-carrying action in route registration order.
var Actions = []Action{
	ActionFindOne,
	ActionFind,
	ActionInsertOne,
	ActionInsertMany,
	ActionAggregate,
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionFind, ActionFindOne, ActionInsertOne, ActionInsertMany, ActionAggregate:
		return true
	default:
		return false
	}
}

// IsWrite reports whether a modifies the backend.
func (a Action) IsWrite() bool {
	return a == ActionInsertOne || a == ActionInsertMany
}

// PrimaryKind is the payload kind the action expects as its primary argument.
// The decoder uses it to tell a [primary, options] pair from a bare array.
func (a Action) PrimaryKind() PayloadKind {
	switch a {
	case ActionInsertMany, ActionAggregate:
		return KindArray
	default:
		return KindObject
	}
}

// primaryName is the human name of the primary argument, used in errors.
func (a Action) primaryName() string {
	switch a {
	case ActionFind, ActionFindOne:
		return "filter"
	case ActionInsertOne:
		return "document"
	case ActionInsertMany:
		return "documents"
	case ActionAggregate:
		return "pipeline"
	default:
		return "payload"
	}
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}
