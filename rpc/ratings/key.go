package ratings

import (
	"strconv"

	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// RequestKey calculates the key the contract assigns to the request submitted
// by the investor. It allows to check for duplicates before paying for the
// submission.
func RequestKey(investor util.Uint160, code, name, pointer string, deadline int64) util.Uint256 {
	data := investor.BytesBE()
	data = append(data, code...)
	data = append(data, name...)
	data = append(data, pointer...)
	data = append(data, strconv.FormatInt(deadline, 10)...)

	return hash.Sha256(data)
}
