/*
Package ratings implements Ratings contract of the crowdfunded rating
marketplace.

Investors post requests for analysis of some project (e.g. a token sale) along
with a bounty paid in GAS. Anyone may contribute to the bounty of an open
request. Auditors join the request while there are free slots and submit their
ratings together with a pointer to the analysis content (an IPFS hash) until
the request deadline. After the deadline the reward is paid out to auditors who
submitted a rating; if nobody did, contributions are refunded.

Paid operations are GAS transfers to the contract with a data array, see
OnNEP17Payment.

# Contract notifications

RequestSubmitted notification. It's produced when investor submits a new
request for rating.

	RequestSubmitted:
	  - name: key
	    type: Hash256
	  - name: investor
	    type: Hash160
	  - name: reward
	    type: Integer
	  - name: deadline
	    type: Integer
	  - name: maxAuditors
	    type: Integer

Contributed notification. It's produced when somebody increases the bounty of
an open request.

	Contributed:
	  - name: key
	    type: Hash256
	  - name: from
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: total
	    type: Integer

AuditorJoined notification. It's produced when an auditor takes a slot of the
request.

	AuditorJoined:
	  - name: key
	    type: Hash256
	  - name: auditor
	    type: Hash160
	  - name: count
	    type: Integer

RatingSubmitted notification. It's produced on every rating submission.

	RatingSubmitted:
	  - name: key
	    type: Hash256
	  - name: auditor
	    type: Hash160
	  - name: rating
	    type: Integer
	  - name: pointer
	    type: String

PaidOut and Refunded notifications. They're produced per GAS transfer made by
Payout and Refund methods.

	PaidOut:
	  - name: key
	    type: Hash256
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
*/
package ratings

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'r' + <key> -> std.Serialize(Request)
    requests for rating
  - 'm' + <key> + <auditor> -> std.Serialize(Membership)
    auditors participating in the request
  - 'c' + <key> + <account> -> std.Serialize(Contribution)
    total GAS contributed by the account to the request

# Requests
Request key is SHA-256 of the concatenation of investor script hash, code,
name, content pointer and decimal deadline. Requests are never removed, their
status changes from Open to either PaidOut or Refunded.
*/
