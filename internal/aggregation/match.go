// 包 aggregation：基于可见小区快照的载波聚合启发式判定
package aggregation

import (
	"fmt"

	"ca-probe/internal/radio"
)

// Verdict：单个制式的判定结论
type Verdict string

const (
	VerdictAggregated    Verdict = "AGGREGATED"
	VerdictNotDetected   Verdict = "NOT_DETECTED"
	VerdictNoServingCell Verdict = "NO_SERVING_CELL"
)

// Confident：仅 AGGREGATED 为确定结论；NOT_DETECTED 只表示未观测到，不是否定
func (v Verdict) Confident() bool { return v == VerdictAggregated }

// Result：单个制式匹配流程的输出
// 约束：Serving 为 nil 时 Sibling 必为 nil；Sibling 取自同制式且不是服务小区本身。
type Result struct {
	Technology  radio.Technology
	Serving     *radio.Measurement
	Sibling     *radio.Measurement
	Verdict     Verdict
	Diagnostics []string
}

const msgNoServing = "Error - API says that no cell is serving, this should not happen"

// Match：在同制式测量序列中确定服务小区与聚合伙伴小区，并输出过程诊断
// 约束：
// 1) 首个 Serving=true 的记录即服务小区，其后的服务声明忽略且不报告；
// 2) 伙伴小区为剩余记录中首个标识相同者，不按信号强度等排序；
// 3) 任何输入都完整返回，不 panic、不返回错误。
func Match(t radio.Technology, ms []radio.Measurement) Result {
	res := Result{Technology: t}
	servingIdx := -1
	for i := range ms {
		if ms[i].Serving {
			servingIdx = i
			break
		}
	}
	if servingIdx < 0 {
		res.Verdict = VerdictNoServingCell
		res.Diagnostics = []string{msgNoServing}
		return res
	}

	serving := ms[servingIdx]
	res.Serving = &serving
	res.Diagnostics = append(res.Diagnostics, describe("Serving", t, serving))

	for i := range ms {
		if i == servingIdx {
			continue
		}
		if ms[i].ID == serving.ID {
			sibling := ms[i]
			res.Sibling = &sibling
			break
		}
	}

	if res.Sibling == nil {
		res.Verdict = VerdictNotDetected
		res.Diagnostics = append(res.Diagnostics,
			"✖ No sibling cell found",
			fmt.Sprintf("✖ This might be %s network or not", t.EnhancementShort()),
		)
		return res
	}

	res.Verdict = VerdictAggregated
	res.Diagnostics = append(res.Diagnostics,
		describe("Sibling", t, *res.Sibling),
		fmt.Sprintf("✓ Probably running on %s network", t.Enhancement()),
		fmt.Sprintf("✓ Carrier aggregation of %d + %d", serving.Channel, res.Sibling.Channel),
	)
	return res
}

func describe(role string, t radio.Technology, m radio.Measurement) string {
	return fmt.Sprintf("%s cell ... %s %d, %s %d", role, t.IDLabel(), m.ID, t.ChannelLabel(), m.Channel)
}
