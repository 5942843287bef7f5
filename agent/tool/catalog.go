package tool

import (
	"github.com/cloudwego/eino/schema"

	"github.com/marquev/warranty-agent/agent/contract"
)

// Catalog describes every workflow tool in the shape the chat model
// expects for function calling.
func Catalog() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: contract.ToolGetWarrantyRecord,
			Desc: "Fetch the warranty record for a product by product_id or serial_number.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id":    {Type: schema.String, Desc: "The product ID to look up"},
				"serial_number": {Type: schema.String, Desc: "The serial number to look up"},
			}),
		},
		{
			Name:        contract.ToolGetWarrantyTerms,
			Desc:        "Get the warranty terms and conditions document.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: contract.ToolCalculateCharges,
			Desc: "Calculate potential service charges based on warranty coverage and location.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id":      {Type: schema.String, Desc: "Product identifier", Required: true},
				"product_type":    {Type: schema.String, Desc: "SALT or HEAT", Required: true},
				"warranty_status": {Type: schema.Object, Desc: "Current warranty status object", Required: true},
				"location":        {Type: schema.Object, Desc: "Customer location with zip, city, state", Required: true},
			}),
		},
		{
			Name: contract.ToolCheckTerritory,
			Desc: "Check whether a location is within the direct service territory.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"location": {Type: schema.Object, Desc: "Location to check (zip, city, state)", Required: true},
			}),
		},
		{
			Name: contract.ToolGetServiceDirectory,
			Desc: "List third-party service providers for a product type near a location.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_type":       {Type: schema.String, Desc: "SALT or HEAT", Required: true},
				"location":           {Type: schema.Object, Desc: "Customer location", Required: true},
				"max_distance_miles": {Type: schema.Number, Desc: "Maximum search radius in miles"},
			}),
		},
		{
			Name: contract.ToolRouteToQueue,
			Desc: "Route a case to the named service queue.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"queue":        {Type: schema.String, Desc: "Queue name, e.g. WarrantySalt", Required: true},
				"case_context": {Type: schema.Object, Desc: "Full case context to attach", Required: true},
				"priority":     {Type: schema.String, Desc: "low, normal, high, or urgent"},
			}),
		},
		{
			Name: contract.ToolGeneratePayPalLink,
			Desc: "Generate a PayPal payment link for a service charge.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"amount":   {Type: schema.Number, Desc: "Amount in the given currency", Required: true},
				"metadata": {Type: schema.Object, Desc: "Case metadata to attach"},
				"currency": {Type: schema.String, Desc: "Currency code, defaults to USD"},
			}),
		},
		{
			Name: contract.ToolLogDeclineReason,
			Desc: "Log the reason a customer declined service.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"reason":  {Type: schema.String, Desc: "The decline reason as stated by the customer", Required: true},
				"context": {Type: schema.Object, Desc: "Case context at time of decline"},
			}),
		},
		{
			Name: contract.ToolNotifyNextSteps,
			Desc: "Send a next-steps notification to the customer.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"channel":     {Type: schema.String, Desc: "email, sms, portal, or chat", Required: true},
				"template_id": {Type: schema.String, Desc: "Notification template id", Required: true},
				"context":     {Type: schema.Object, Desc: "Template substitution values"},
				"recipient":   {Type: schema.Object, Desc: "Recipient contact details"},
			}),
		},
	}
}
