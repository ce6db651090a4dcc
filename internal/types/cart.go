package types

import "fmt"

// CartType classifies the transaction a cart represents.
// It is set provisionally during classification and refined as the
// state machine progresses; the last write wins.
type CartType string

const (
	CartTypeNew       CartType = "new"
	CartTypeRenewal   CartType = "renewal"
	CartTypeUpgrade   CartType = "upgrade"
	CartTypeDowngrade CartType = "downgrade"
	CartTypeAddon     CartType = "addon"
	CartTypeRetry     CartType = "retry"
)

// LineItemType is the type of a cart line item
type LineItemType string

const (
	LineItemTypeProduct  LineItemType = "product"
	LineItemTypeFee      LineItemType = "fee"
	LineItemTypeDiscount LineItemType = "discount"
	LineItemTypeCredit   LineItemType = "credit"
)

func (t LineItemType) Validate() error {
	switch t {
	case LineItemTypeProduct, LineItemTypeFee, LineItemTypeDiscount, LineItemTypeCredit:
		return nil
	default:
		return fmt.Errorf("invalid line item type: %s", t)
	}
}

// AmountType describes how a discount or tax rate is applied
type AmountType string

const (
	AmountTypePercentage AmountType = "percentage"
	AmountTypeAbsolute   AmountType = "absolute"
)

// ProductType is the catalog type of a product
type ProductType string

const (
	ProductTypePlan    ProductType = "plan"
	ProductTypeAddon   ProductType = "addon"
	ProductTypeService ProductType = "service"
)
