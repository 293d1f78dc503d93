package types

import "github.com/go-playground/validator/v10"

// validate is shared by every request type; validator caches struct
// metadata per instance and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())
