package parcel

import "errors"

var ErrParcelNotFound = errors.New("parcel not found")
