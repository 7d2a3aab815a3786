package addresses

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type service struct {
	logger       mylog.Logger
	addressStore mystore.Store[checkoutapi.Address]
}

func newService(logger mylog.Logger, addressStore mystore.Store[checkoutapi.Address]) *service {
	return &service{
		logger:       logger,
		addressStore: addressStore,
	}
}

func (s *service) listAddresses(c context.Context, customerID string) ([]checkoutapi.Address, error) {
	addresses, err := s.addressStore.Query(c, []mystore.Filter{
		{Field: "CustomerID", Compare: "=", Value: customerID},
		{Field: "Active", Compare: "=", Value: true},
	}, "ID")
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error fetching addresses of customer %s: %w", customerID, err))
	}
	return addresses, nil
}

func (s *service) putAddress(c context.Context, address checkoutapi.Address) error {
	address.CountryID = strings.ToUpper(strings.TrimSpace(address.CountryID))

	err := s.addressStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		if address.IsDefault {
			others, err := s.addressStore.Query(c, []mystore.Filter{
				{Field: "CustomerID", Compare: "=", Value: address.CustomerID},
				{Field: "IsDefault", Compare: "=", Value: true},
			}, "")
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			for _, other := range others {
				if other.ID == address.ID {
					continue
				}
				other.IsDefault = false
				err = s.addressStore.Put(c, other.ID, other)
				if err != nil {
					return myerrors.NewInternalError(err)
				}
			}
		}

		err := s.addressStore.Put(c, address.ID, address)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing address %s: %w", address.ID, err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Log(c, address.CustomerID, mylog.SeverityInfo, "Stored address %s of customer %s", address.ID, address.CustomerID)
	return nil
}

// GetAddress is used by the order service to resolve the shipping address of a checkout.
func (s *service) GetAddress(c context.Context, addressID string) (checkoutapi.Address, bool, error) {
	address, found, err := s.addressStore.Get(c, addressID)
	if err != nil {
		return checkoutapi.Address{}, false, myerrors.NewInternalError(err)
	}
	return address, found, nil
}
