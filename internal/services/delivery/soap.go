package delivery

import (
	"encoding/xml"
	"strconv"
)

const (
	soapEnvNS   = "http://schemas.xmlsoap.org/soap/envelope/"
	tempuriNS   = "http://tempuri.org/"
	soapAction  = tempuriNS + "FlexiIshareBundle"
	contentType = "text/xml;charset=UTF-8"

	// SuccessMarker is the only ResponseMsg that means the bundle was credited.
	SuccessMarker = "Crediting Successful."
)

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soapenv:Envelope"`
	SoapEnv string      `xml:"xmlns:soapenv,attr"`
	Tem     string      `xml:"xmlns:tem,attr"`
	Header  struct{}    `xml:"soapenv:Header"`
	Body    requestBody `xml:"soapenv:Body"`
}

type requestBody struct {
	Bundle flexiIshareBundle `xml:"tem:FlexiIshareBundle"`
}

type flexiIshareBundle struct {
	Username        string `xml:"tem:username"`
	Password        string `xml:"tem:password"`
	DealerMSISDN    string `xml:"tem:dealerMsisdn"`
	RecipientMSISDN string `xml:"tem:recipientMsisdn"`
	TransactionID   string `xml:"tem:transactionId"`
	SharedBundle    string `xml:"tem:sharedBundle"`
}

// responseEnvelope matches on local names so any envelope prefix is accepted.
type responseEnvelope struct {
	XMLName      xml.Name `xml:"Envelope"`
	ResponseCode string   `xml:"Body>FlexiIshareBundleResponse>FlexiIshareBundleResult>ApiResponse>ResponseCode"`
	ResponseMsg  string   `xml:"Body>FlexiIshareBundleResponse>FlexiIshareBundleResult>ApiResponse>ResponseMsg"`
}

func buildEnvelope(cfg Config, req Request) ([]byte, error) {
	env := requestEnvelope{
		SoapEnv: soapEnvNS,
		Tem:     tempuriNS,
		Body: requestBody{Bundle: flexiIshareBundle{
			Username:        cfg.Username,
			Password:        cfg.Password,
			DealerMSISDN:    req.DealerID,
			RecipientMSISDN: req.Recipient,
			TransactionID:   req.TransactionRef,
			SharedBundle:    strconv.Itoa(req.CapacityMB),
		}},
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func parseResponse(body []byte) (*responseEnvelope, error) {
	var env responseEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
