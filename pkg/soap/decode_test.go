package soap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const getLeadResponse = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ns1="http://www.marketo.com/mktows/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <SOAP-ENV:Body>
    <ns1:successGetLead>
      <result>
        <count>1</count>
        <leadRecordList>
          <leadRecord>
            <Id>1001</Id>
            <Email>a@x.com</Email>
            <ForeignSysPersonId xsi:nil="true"/>
            <leadAttributeList>
              <attribute>
                <attrName>FirstName</attrName>
                <attrType>string</attrType>
                <attrValue>Ada</attrValue>
              </attribute>
            </leadAttributeList>
          </leadRecord>
        </leadRecordList>
      </result>
    </ns1:successGetLead>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const authFaultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ns1="http://www.marketo.com/mktows/">
  <SOAP-ENV:Body>
    <SOAP-ENV:Fault>
      <faultcode>SOAP-ENV:Client</faultcode>
      <faultstring>20014 - Authentication failed</faultstring>
      <detail>
        <ns1:serviceException>
          <name>mktServiceException</name>
          <message>Authentication failed (20014)</message>
          <code>20014</code>
        </ns1:serviceException>
      </detail>
    </SOAP-ENV:Fault>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

func TestDecodeResponse_NestedResult(t *testing.T) {
	decoded, err := DecodeResponse([]byte(getLeadResponse))
	require.NoError(t, err)

	success, ok := decoded["successGetLead"].(map[string]any)
	require.True(t, ok)
	result := success["result"].(map[string]any)
	assert.Equal(t, "1", result["count"])

	record := result["leadRecordList"].(map[string]any)["leadRecord"].(map[string]any)
	assert.Equal(t, "1001", record["Id"])
	assert.Nil(t, record["ForeignSysPersonId"])
	assert.Contains(t, record, "ForeignSysPersonId")

	attr := record["leadAttributeList"].(map[string]any)["attribute"].(map[string]any)
	assert.Equal(t, "Ada", attr["attrValue"])
}

func TestDecodeResponse_RepeatedElementsBecomeList(t *testing.T) {
	data := `<Envelope><Body><successListMObjects><result>
		<objects>LeadRecord</objects><objects>Opportunity</objects><objects>Program</objects>
	</result></successListMObjects></Body></Envelope>`

	decoded, err := DecodeResponse([]byte(data))
	require.NoError(t, err)

	result := decoded["successListMObjects"].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, []any{"LeadRecord", "Opportunity", "Program"}, result["objects"])
}

func TestDecodeResponse_EmptyElementIsEmptyString(t *testing.T) {
	data := `<Envelope><Body><successGetLead><result><leadRecordList/></result></successGetLead></Body></Envelope>`

	decoded, err := DecodeResponse([]byte(data))
	require.NoError(t, err)

	result := decoded["successGetLead"].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, "", result["leadRecordList"])
}

func TestDecodeResponse_IndentedEmptyElementKeepsText(t *testing.T) {
	data := "<Envelope><Body><successGetLead><result><leadRecordList>\n    </leadRecordList></result></successGetLead></Body></Envelope>"

	decoded, err := DecodeResponse([]byte(data))
	require.NoError(t, err)

	result := decoded["successGetLead"].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, "\n    ", result["leadRecordList"])
}

func TestDecodeResponse_EmptyBody(t *testing.T) {
	_, err := DecodeResponse([]byte(`<Envelope><Body></Body></Envelope>`))
	assert.True(t, errors.Is(err, ErrEmptyBody))

	_, err = DecodeResponse([]byte(`<Envelope></Envelope>`))
	assert.True(t, errors.Is(err, ErrEmptyBody))
}

func TestDecodeResponse_Garbage(t *testing.T) {
	_, err := DecodeResponse([]byte(`<Envelope><Body><unterminated>`))
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.True(t, decodeErr.MalformedResponse())
	assert.False(t, IsFault(err))
}

func TestDecodeResponse_Fault(t *testing.T) {
	_, err := DecodeResponse([]byte(authFaultResponse))

	var fault *Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "SOAP-ENV:Client", fault.FaultCode())
	assert.Equal(t, "20014 - Authentication failed", fault.Message)
	assert.Equal(t, "20014", fault.ServiceCode())
	assert.Equal(t, "soap fault: SOAP-ENV:Client: 20014 - Authentication failed: code=20014", fault.Error())
}

func TestParseFault(t *testing.T) {
	assert.Nil(t, ParseFault([]byte(getLeadResponse)))
	assert.Nil(t, ParseFault([]byte("gateway timeout")))

	fault := ParseFault([]byte(authFaultResponse))
	require.NotNil(t, fault)
	assert.Equal(t, "SOAP-ENV:Client", fault.Code)
}
