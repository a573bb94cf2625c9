package auth

import (
	"encoding/binary"

	"github.com/xraph/subledger/account"
)

// Message tags. The tag is the first field of every signed payload so a
// signature for one operation can never be replayed as another.
const (
	tagCreatePlan = "subledger/create-plan/v1"
	tagSubscribe  = "subledger/subscribe/v1"
)

// CreatePlanMessage is the payload a creator signs to publish a plan.
func CreatePlanMessage(creator account.Address, planID uint64, name string, price uint64, durationDays uint32) []byte {
	var b messageBuilder
	b.str(tagCreatePlan)
	b.bytes(creator[:])
	b.u64(planID)
	b.str(name)
	b.u64(price)
	b.u64(uint64(durationDays))
	return b.buf
}

// SubscribeMessage is the payload a subscriber signs to subscribe.
func SubscribeMessage(subscriber, plan, creator account.Address) []byte {
	var b messageBuilder
	b.str(tagSubscribe)
	b.bytes(subscriber[:])
	b.bytes(plan[:])
	b.bytes(creator[:])
	return b.buf
}

type messageBuilder struct {
	buf []byte
}

func (b *messageBuilder) bytes(p []byte) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(p)))
	b.buf = append(b.buf, p...)
}

func (b *messageBuilder) str(s string) { b.bytes([]byte(s)) }

func (b *messageBuilder) u64(v uint64) {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
}
