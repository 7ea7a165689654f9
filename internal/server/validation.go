package server

import (
	"errors"

	clientdomain "github.com/smallbiznis/billflow/internal/client/domain"
	invoicedomain "github.com/smallbiznis/billflow/internal/invoice/domain"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	reportdomain "github.com/smallbiznis/billflow/internal/report/domain"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
)

// validationSentinels are domain errors reported to callers as 400s.
// Services may wrap them with detail, so matching goes through errors.Is.
var validationSentinels = []error{
	ErrInvalidRequest,

	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidEmail,
	clientdomain.ErrInvalidID,

	supplierdomain.ErrInvalidName,
	supplierdomain.ErrInvalidEmail,
	supplierdomain.ErrInvalidID,

	productdomain.ErrInvalidID,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidWarranty,
	productdomain.ErrInvalidStock,
	productdomain.ErrInvalidSortBy,
	productdomain.ErrSupplierRequired,
	productdomain.ErrSerialCountMismatch,
	productdomain.ErrSerialNotInStock,
	productdomain.ErrSerialsNotTracked,
	productdomain.ErrDuplicateSerial,

	invoicedomain.ErrInvalidID,
	invoicedomain.ErrInvalidClient,
	invoicedomain.ErrInvalidDate,
	invoicedomain.ErrInvalidProduct,
	invoicedomain.ErrInvalidQuantity,
	invoicedomain.ErrInvalidPrice,
	invoicedomain.ErrInvalidRate,
	invoicedomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidLimit,

	reportdomain.ErrInvalidRange,
	reportdomain.ErrInvalidSerial,
}

func validationSentinel(err error) error {
	for _, target := range validationSentinels {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
