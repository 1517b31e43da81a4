package grounding

import (
	"fmt"
	"strings"

	"github.com/seekforge/groundchat/internal/search"
)

// NoInformation is returned by Summarize when there is nothing to summarize.
const NoInformation = "未找到相关信息"

const decisionPromptTemplate = `你是一个智能搜索策略助手，负责判断用户的问题是否需要网络搜索，并生成最优搜索词。

角色：%s
用户问题：%s

**需要搜索的情况：**
1. 涉及具体的历史事件、故事情节细节
2. 提到原著中的具体场景、对话、台词
3. 询问角色背景故事的详细内容（如称号由来、经历、关系等）
4. 需要引用原作内容的问题
5. 询问具体的技术细节、专业知识
6. 需要真实数据、事实核查的问题

**搜索词生成原则：**
1. 使用精确的关键词组合（2-4个词）
2. 优先使用中文，包含核心概念
3. 避免太宽泛（如只搜"孙悟空"），要具体（如"孙悟空 齐天大圣 称号由来"）
4. 如果是角色相关，加上作品名（如"西游记 孙悟空 大闹天宫"）
5. 如果是技术问题，加上关键术语

请以JSON格式回复：
{
    "need_search": true/false,
    "search_query": "精确的搜索关键词组合",
    "reason": "判断理由（为什么需要/不需要搜索）"
}`

const summaryPromptTemplate = `你是一个专业的信息提取助手。请仔细阅读以下关于"%s"的网页内容，提取最有价值的信息。

%s

要求：
1. **深度提取**：从网页全文中提取详细的事实信息，包括背景、细节、数据等
2. **结构化输出**：用清晰的段落组织信息，包含：
   - 核心事实（是什么）
   - 背景信息（为什么、怎么来的）
   - 相关细节（具体情况、数据、例子）
3. **保持准确**：只使用搜索结果中的信息，不添加推测
4. **信息丰富**：输出应该是详细的（200-400字），而不是简单概括
5. **去重合并**：如果多个来源有相同信息，合并后只说一次
6. **保持中文**：全部使用中文输出

请提供详细的总结：`

const contextTemplate = `【🔍 背景知识增强】
用户询问：%s

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
📚 相关真实资料（来自网络搜索并经AI提取）：

%s

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

**重要指示：**
1. **优先使用真实资料**：以上搜索结果是从可靠来源提取的真实信息，请将其作为回答的主要依据
2. **融入角色人格**：用%s的口吻、语言风格、性格特点来表达这些信息
3. **详细且生动**：基于这些详实的背景资料，给出丰富、具体、有细节的回答
4. **第一人称视角**：如果是角色自身的事情，用第一人称讲述（"我当时..."）
5. **自然引用**：将背景知识自然地融入对话中，就像角色在回忆或讲述自己的经历
6. **保持真实性**：不要编造搜索结果中没有的信息，如果某些细节不确定，可以说"我记得大概是..."

请现在以%s的身份，基于上述真实资料，回答用户的问题。`

// EnhanceContext builds the block appended to the system prompt when a
// search was performed: the user question, the summarized material, and the
// in-character answering rules.
func EnhanceContext(userMessage, characterName, summary string) string {
	return fmt.Sprintf(contextTemplate, userMessage, summary, characterName, characterName)
}

// sourceBlock renders one search result for the summary prompt.
func sourceBlock(i int, r search.Result, contentMax int) string {
	return fmt.Sprintf("【来源 %d】%s\n网址：%s\n\n内容摘要：\n%s",
		i+1, r.Title, r.URL, truncateRunes(r.FullContent, contentMax))
}

// truncateRunes cuts s to at most n runes. Page text is mostly CJK, so byte
// slicing would both overshoot the budget and split characters.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func joinSourceBlocks(blocks []string) string {
	return "\n\n" + strings.Repeat("=", 50) + "\n\n" + strings.Join(blocks, "\n\n")
}
