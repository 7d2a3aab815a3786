package checkoutevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myevents"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

const (
	TopicName                   = "order"
	orderCreatedName            = TopicName + ".created"
	orderManualCreatedName      = TopicName + ".manualCreated"
	orderPaidName               = TopicName + ".paid"
	orderVerificationFailedName = TopicName + ".verificationFailed"
)

type OrderEventService interface {
	Subscribe(c context.Context) error
	OnOrderCreated(c context.Context, topic string, event OrderCreated) error
	OnManualOrderCreated(c context.Context, topic string, event ManualOrderCreated) error
	OnOrderPaid(c context.Context, topic string, event OrderPaid) error
	OnOrderVerificationFailed(c context.Context, topic string, event OrderVerificationFailed) error
}

func DispatchEvent(c context.Context, reader io.Reader, service OrderEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case orderCreatedName:
		event := OrderCreated{}
		err := json.Unmarshal([]byte(envelope.EventPayload), &event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnOrderCreated(c, envelope.Topic, event)

	case orderManualCreatedName:
		event := ManualOrderCreated{}
		err := json.Unmarshal([]byte(envelope.EventPayload), &event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnManualOrderCreated(c, envelope.Topic, event)

	case orderPaidName:
		event := OrderPaid{}
		err := json.Unmarshal([]byte(envelope.EventPayload), &event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnOrderPaid(c, envelope.Topic, event)

	case orderVerificationFailedName:
		event := OrderVerificationFailed{}
		err := json.Unmarshal([]byte(envelope.EventPayload), &event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnOrderVerificationFailed(c, envelope.Topic, event)

	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unsupported event %s", envelope.EventTypeName))
	}
}

type OrderCreated struct {
	OrderID        string
	PublicCode     string
	CustomerID     string
	CouponCode     string
	GatewayOrderID string
	GrandTotal     checkoutapi.Money
	Currency       string
}

func (e OrderCreated) GetEventTypeName() string {
	return orderCreatedName
}

func (e OrderCreated) GetAggregateName() string {
	return e.OrderID
}

// ManualOrderCreated is an international order that the back office quotes by hand.
type ManualOrderCreated struct {
	OrderID       string
	PublicCode    string
	CustomerID    string
	CountryID     string
	ItemsSubtotal checkoutapi.Money
	Currency      string
	Notes         string
}

func (e ManualOrderCreated) GetEventTypeName() string {
	return orderManualCreatedName
}

func (e ManualOrderCreated) GetAggregateName() string {
	return e.OrderID
}

type OrderPaid struct {
	OrderID          string
	PublicCode       string
	CustomerID       string
	CouponCode       string
	DiscountTotal    checkoutapi.Money
	GrandTotal       checkoutapi.Money
	Currency         string
	GatewayProvider  string
	GatewayPaymentID string
}

func (e OrderPaid) GetEventTypeName() string {
	return orderPaidName
}

func (e OrderPaid) GetAggregateName() string {
	return e.OrderID
}

type OrderVerificationFailed struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Reason           string
}

func (e OrderVerificationFailed) GetEventTypeName() string {
	return orderVerificationFailedName
}

func (e OrderVerificationFailed) GetAggregateName() string {
	return e.OrderID
}
