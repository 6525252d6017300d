package mongodb

import (
	"fmt"
	"math"
	"time"

	"github.com/phrazzld/json-bucket/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The builders below expect option documents already validated by the domain
// builder. They still fail on unexpected keys or types instead of silently
// dropping them.

func findOptions(opts bson.D) (*options.FindOptions, error) {
	fo := options.Find()
	for _, e := range opts {
		switch e.Key {
		case domain.OptSort:
			fo.SetSort(e.Value)
		case domain.OptLimit:
			n, err := int64Option(e)
			if err != nil {
				return nil, err
			}
			fo.SetLimit(n)
		case domain.OptSkip:
			n, err := int64Option(e)
			if err != nil {
				return nil, err
			}
			fo.SetSkip(n)
		case domain.OptProjection:
			fo.SetProjection(e.Value)
		case domain.OptMaxTime:
			d, err := durationOption(e)
			if err != nil {
				return nil, err
			}
			fo.SetMaxTime(d)
		case domain.OptHint:
			fo.SetHint(e.Value)
		case domain.OptBatchSize:
			n, err := int32Option(e)
			if err != nil {
				return nil, err
			}
			fo.SetBatchSize(n)
		case domain.OptComment:
			s, err := stringOption(e)
			if err != nil {
				return nil, err
			}
			fo.SetComment(s)
		case domain.OptAllowDiskUse:
			b, err := boolOption(e)
			if err != nil {
				return nil, err
			}
			fo.SetAllowDiskUse(b)
		default:
			return nil, unsupportedOption("find", e.Key)
		}
	}
	return fo, nil
}

func findOneOptions(opts bson.D) (*options.FindOneOptions, error) {
	fo := options.FindOne()
	for _, e := range opts {
		switch e.Key {
		case domain.OptSort:
			fo.SetSort(e.Value)
		case domain.OptSkip:
			n, err := int64Option(e)
			if err != nil {
				return nil, err
			}
			fo.SetSkip(n)
		case domain.OptProjection:
			fo.SetProjection(e.Value)
		case domain.OptMaxTime:
			d, err := durationOption(e)
			if err != nil {
				return nil, err
			}
			fo.SetMaxTime(d)
		case domain.OptHint:
			fo.SetHint(e.Value)
		case domain.OptComment:
			s, err := stringOption(e)
			if err != nil {
				return nil, err
			}
			fo.SetComment(s)
		default:
			return nil, unsupportedOption("find_one", e.Key)
		}
	}
	return fo, nil
}

// insertOneOptions returns the driver options and the maxTime to enforce as a
// context deadline. The insert command has no maxTimeMS of its own.
func insertOneOptions(opts bson.D) (*options.InsertOneOptions, time.Duration, error) {
	ioo := options.InsertOne()
	var maxTime time.Duration
	for _, e := range opts {
		switch e.Key {
		case domain.OptMaxTime:
			d, err := durationOption(e)
			if err != nil {
				return nil, 0, err
			}
			maxTime = d
		case domain.OptBypassDocumentValidation:
			b, err := boolOption(e)
			if err != nil {
				return nil, 0, err
			}
			ioo.SetBypassDocumentValidation(b)
		case domain.OptComment:
			ioo.SetComment(e.Value)
		default:
			return nil, 0, unsupportedOption("insert", e.Key)
		}
	}
	return ioo, maxTime, nil
}

func insertManyOptions(opts bson.D) (*options.InsertManyOptions, time.Duration, error) {
	im := options.InsertMany()
	var maxTime time.Duration
	for _, e := range opts {
		switch e.Key {
		case domain.OptMaxTime:
			d, err := durationOption(e)
			if err != nil {
				return nil, 0, err
			}
			maxTime = d
		case domain.OptBypassDocumentValidation:
			b, err := boolOption(e)
			if err != nil {
				return nil, 0, err
			}
			im.SetBypassDocumentValidation(b)
		case domain.OptOrdered:
			b, err := boolOption(e)
			if err != nil {
				return nil, 0, err
			}
			im.SetOrdered(b)
		case domain.OptComment:
			im.SetComment(e.Value)
		default:
			return nil, 0, unsupportedOption("insert_many", e.Key)
		}
	}
	return im, maxTime, nil
}

func aggregateOptions(opts bson.D) (*options.AggregateOptions, error) {
	ao := options.Aggregate()
	for _, e := range opts {
		switch e.Key {
		case domain.OptMaxTime:
			d, err := durationOption(e)
			if err != nil {
				return nil, err
			}
			ao.SetMaxTime(d)
		case domain.OptAllowDiskUse:
			b, err := boolOption(e)
			if err != nil {
				return nil, err
			}
			ao.SetAllowDiskUse(b)
		case domain.OptBatchSize:
			n, err := int32Option(e)
			if err != nil {
				return nil, err
			}
			ao.SetBatchSize(n)
		case domain.OptHint:
			ao.SetHint(e.Value)
		case domain.OptComment:
			s, err := stringOption(e)
			if err != nil {
				return nil, err
			}
			ao.SetComment(s)
		case domain.OptLet:
			ao.SetLet(e.Value)
		default:
			return nil, unsupportedOption("aggregate", e.Key)
		}
	}
	return ao, nil
}

func unsupportedOption(op, key string) error {
	return fmt.Errorf("%w: option %q is not supported by %s", domain.ErrBuild, key, op)
}

func int64Option(e bson.E) (int64, error) {
	n, ok := domain.AsInt64(e.Value)
	if !ok {
		return 0, fmt.Errorf("%w: option %q must be an integer", domain.ErrBuild, e.Key)
	}
	return n, nil
}

func int32Option(e bson.E) (int32, error) {
	n, err := int64Option(e)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: option %q is out of range", domain.ErrBuild, e.Key)
	}
	return int32(n), nil
}

func durationOption(e bson.E) (time.Duration, error) {
	ms, err := int64Option(e)
	if err != nil {
		return 0, err
	}
	if ms < 0 || ms > domain.MaxTimeLimitMS {
		return 0, fmt.Errorf("%w: option %q is out of range", domain.ErrBuild, e.Key)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func stringOption(e bson.E) (string, error) {
	s, ok := e.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: option %q must be a string", domain.ErrBuild, e.Key)
	}
	return s, nil
}

func boolOption(e bson.E) (bool, error) {
	b, ok := e.Value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: option %q must be a boolean", domain.ErrBuild, e.Key)
	}
	return b, nil
}
